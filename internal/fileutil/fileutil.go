// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrEmptyPath = errors.New("path cannot be empty")
)

// WriteAtomic writes the output of write to path. Content goes to a temp file
// in the destination directory, which is synced, closed and renamed over path.
// On any failure the temp file is removed and path is left untouched.
func WriteAtomic(path string, write func(io.Writer) error) error {
	s, err := Stage(path, write)
	if err != nil {
		return err
	}
	return s.Commit()
}

// Staged is a synced temp file waiting to be renamed over its target.
type Staged struct {
	path string
	tmp  string
}

// Stage writes the output of write to a temp file beside path and leaves it
// there. Commit publishes it and Discard drops it. On failure nothing is
// left on disk.
func Stage(path string, write func(io.Writer) error) (s *Staged, err error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		return nil, err
	}
	if err = tmp.Sync(); err != nil {
		return nil, fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil { // #nosec G302 -- output document is meant to be shared
		return nil, fmt.Errorf("setting permissions: %w", err)
	}
	return &Staged{path: path, tmp: tmpPath}, nil
}

// Commit renames the temp file over the target. The temp file is removed
// when the rename fails.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("renaming temp file to %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the temp file without touching the target.
func (s *Staged) Discard() {
	_ = os.Remove(s.tmp)
}

// CommitAll commits files in order. When one rename fails, the remaining
// temp files are discarded and the targets already committed are removed,
// so either every file is published or none is.
func CommitAll(files ...*Staged) error {
	for i, s := range files {
		if err := s.Commit(); err != nil {
			for _, rest := range files[i+1:] {
				rest.Discard()
			}
			for _, done := range files[:i] {
				_ = os.Remove(done.path)
			}
			return err
		}
	}
	return nil
}

// ReplaceExt swaps the extension of path for ext, which includes the dot.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "thesis" -> false (config name)
//   - "./thesis.yaml" -> true (relative path)
//   - "/etc/stpdocx.yaml" -> true (absolute)
//   - "C:\configs\thesis.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
