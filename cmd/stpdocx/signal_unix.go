//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals cancel a running conversion or watch loop.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
