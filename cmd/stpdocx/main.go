package main

import (
	"context"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	var err error
	switch args[0] {
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "stpdocx %s\n", Version)
	case "help", "-h", "--help":
		err = runHelp(args[1:], env)
	case "completion":
		err = runCompletion(args[1:], env)
	default:
		err = runConvert(ctx, args, env)
	}

	if err != nil {
		fmt.Fprintln(env.Stderr, formatError(err, env.Config))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
