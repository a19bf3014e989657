package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-stpdocx"
	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrTooManyInputs      = errors.New("only one input file or directory is accepted")
	ErrNoDocuments        = errors.New("no Markdown or YAML documents found")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// resolveInputPath returns the single positional argument.
func resolveInputPath(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", ErrNoInput
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("%w: got %d", ErrTooManyInputs, len(args))
}

// discoverFiles lists the documents to convert. A file input must have a
// supported extension; a directory input yields every supported file below
// it, skipping hidden directories.
func discoverFiles(inputPath, output string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", stpdocx.ErrInputNotFound, inputPath)
		}
		return nil, err
	}

	if !info.IsDir() {
		if _, err := stpdocx.DetectFormat(inputPath); err != nil {
			return nil, err
		}
		return []FileToConvert{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, output, "")}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if path != inputPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSupported(path) {
			return nil
		}
		files = append(files, FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, inputPath)
	}
	return files, nil
}

func isSupported(path string) bool {
	_, err := stpdocx.DetectFormat(path)
	return err == nil
}

// resolveOutputPath determines the DOCX path for one input.
//
//   - no output: next to the input, extension replaced by .docx
//   - directory input: output is a directory, the input tree is mirrored
//   - existing directory: <output>/<stem>.docx
//   - anything else: output is used as given
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	if output == "" {
		return fileutil.ReplaceExt(inputPath, ".docx")
	}

	name := fileutil.ReplaceExt(filepath.Base(inputPath), ".docx")
	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(output, filepath.Dir(rel), name)
		}
		return filepath.Join(output, name)
	}

	if fileutil.DirExists(output) {
		return filepath.Join(output, name)
	}
	return output
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}
