package main

import (
	"io"
	"os"

	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/logging"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	Environ   func() []string
	Config    *config.Config // replaced once flags and files are merged
	Logger    logging.Logger // set by runConvert from the resolved level
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		Environ:   os.Environ,
		Config:    config.DefaultConfig(),
		Logger:    logging.NoOp(),
	}
}
