package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-stpdocx"
	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/logging"
)

// ErrUsage marks command line errors.
var ErrUsage = errors.New("invalid usage")

// errConversionsFailed reports that at least one document failed. It wraps
// the first failure so the exit code follows its cause.
type errConversionsFailed struct {
	failed, total int
	first         error
}

func (e *errConversionsFailed) Error() string {
	return fmt.Sprintf("%d of %d conversion(s) failed", e.failed, e.total)
}

func (e *errConversionsFailed) Unwrap() error { return e.first }

// runConvert orchestrates a conversion run: configuration, discovery, the
// worker batch and, with --watch, the rebuild loop.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	settings := loadEnvSettings(env.LookupEnv)
	cfg, err := loadConfig(flags.common.config, settings.ConfigPath)
	if err != nil {
		return err
	}
	applyEnvSettings(settings, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	env.Config = cfg

	log, err := logging.New(resolveLogLevel(flags.common, cfg))
	if err != nil {
		return err
	}
	env.Logger = log
	warnUnknownEnvVars(env.Environ(), log)
	tuneProcs(log)

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.DefaultDir
	}
	files, err := discoverFiles(inputPath, output)
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg, log)
	if err != nil {
		return err
	}

	workers := resolvePoolSize(cfg.Workers)
	log.Debug("starting conversion", "files", len(files), "workers", workers)

	results := convertBatch(ctx, conv, files, workers)
	summary := printResults(results, flags.common.quiet, flags.common.verbose, env)

	if flags.watch {
		if len(results) == 1 && summary.FirstErr != nil {
			fmt.Fprintln(env.Stderr, formatError(summary.FirstErr, cfg))
		}
		return watchAndConvert(ctx, conv, inputPath, output, files, flags.common, env)
	}
	if summary.Failed > 0 {
		if len(results) == 1 {
			return summary.FirstErr
		}
		return &errConversionsFailed{failed: summary.Failed, total: len(results), first: summary.FirstErr}
	}
	return nil
}

// loadConfig loads the config named by the flag, else by STPDOCX_CONFIG,
// else returns the defaults.
func loadConfig(flagName, envName string) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", name, err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. Set flags override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	d := flags.document
	if d.policy != "" {
		cfg.Policy = d.policy
	}
	if len(d.unnumbered) > 0 {
		cfg.Unnumbered = append(cfg.Unnumbered, d.unnumbered...)
	}
	if d.assetDir != "" {
		cfg.AssetDir = d.assetDir
	}
	if d.strictImages {
		cfg.StrictImages = true
	}
	if d.codeStyle != "" {
		cfg.CodeStyle = d.codeStyle
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.html {
		cfg.Output.HTML = true
	}
	if flags.style != "" {
		cfg.Output.PreviewStyle = flags.style
	}
}

// resolveLogLevel applies --verbose and --quiet over the configured level.
func resolveLogLevel(f commonFlags, cfg *config.Config) string {
	switch {
	case f.verbose:
		return logging.LevelDebug
	case f.quiet:
		return logging.LevelError
	}
	return cfg.Log.Level
}

// newConverter builds the library converter from the merged config.
func newConverter(cfg *config.Config, log logging.Logger) (*stpdocx.Converter, error) {
	return stpdocx.NewConverter(
		stpdocx.WithPolicy(cfg.Policy),
		stpdocx.WithUnnumbered(cfg.Unnumbered...),
		stpdocx.WithAssetDir(cfg.AssetDir),
		stpdocx.WithStrictImages(cfg.StrictImages),
		stpdocx.WithCodeStyle(cfg.CodeStyle),
		stpdocx.WithHTMLPreview(cfg.Output.HTML),
		stpdocx.WithPreviewStyle(cfg.Output.PreviewStyle),
		stpdocx.WithLogger(log),
	)
}

// tuneProcs sets GOMAXPROCS from the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply.
func tuneProcs(log logging.Logger) {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))
}
