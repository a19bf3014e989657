package main

import "runtime"

// maxAutoWorkers caps the worker count picked when none is configured.
const maxAutoWorkers = 8

// resolvePoolSize determines the number of conversion workers.
// Priority: explicit value > GOMAXPROCS, as tuned by automaxprocs.
func resolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	return min(max(runtime.GOMAXPROCS(0), 1), maxAutoWorkers)
}
