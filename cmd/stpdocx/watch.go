package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups the burst of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// watchAndConvert re-converts documents whenever they change, until ctx is
// canceled. Parent directories are watched rather than the files, so saves
// that replace a file through a rename are still seen. With a directory
// input, new supported files are picked up too.
func watchAndConvert(ctx context.Context, conv fileConverter, inputPath, output string, files []FileToConvert, common commonFlags, env *Environment) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	info, err := os.Stat(inputPath)
	if err != nil {
		return err
	}
	dirInput := info.IsDir()

	targets := make(map[string]FileToConvert, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		targets[filepath.Clean(f.InputPath)] = f
		dirs[filepath.Dir(filepath.Clean(f.InputPath))] = true
	}
	if dirInput {
		dirs[filepath.Clean(inputPath)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	log := env.Logger
	log.Info("watching for changes", "input", inputPath, "directories", len(dirs))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	pending := make(map[string]FileToConvert)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			f, known := targets[path]
			if !known {
				if !dirInput || !isSupported(path) || !dirs[filepath.Dir(path)] {
					continue
				}
				f = FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath)}
				targets[path] = f
			}
			log.Debug("change detected", "path", path, "op", ev.Op.String())
			pending[path] = f
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-timer.C:
			batch := make([]FileToConvert, 0, len(pending))
			for path, f := range pending {
				// A rename away from the path leaves nothing to convert.
				if _, err := os.Stat(path); err == nil {
					batch = append(batch, f)
				}
			}
			clear(pending)
			if len(batch) == 0 {
				continue
			}
			results := convertBatch(ctx, conv, batch, resolvePoolSize(env.Config.Workers))
			summary := printResults(results, common.quiet, common.verbose, env)
			if len(results) == 1 && summary.FirstErr != nil {
				fmt.Fprintln(env.Stderr, formatError(summary.FirstErr, env.Config))
			}
		}
	}
}
