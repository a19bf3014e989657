//go:build windows

package main

import "os"

// shutdownSignals cancel a running conversion or watch loop.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
