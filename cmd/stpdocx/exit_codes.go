package main

import (
	"errors"
	"os"

	"github.com/alnah/go-stpdocx"
	"github.com/alnah/go-stpdocx/internal/assets"
	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/hints"
	"github.com/alnah/go-stpdocx/internal/yamldoc"
)

// Exit codes for the stpdocx CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Successful conversion
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // Input not found, write failure
	ExitDocument = 4 // Parse error, missing section context, missing image
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Document errors (exit 4)
	if errors.Is(err, stpdocx.ErrParse) ||
		errors.Is(err, stpdocx.ErrEmptyInput) ||
		errors.Is(err, stpdocx.ErrMissingSectionContext) ||
		errors.Is(err, stpdocx.ErrImageNotFound) {
		return ExitDocument
	}

	// I/O errors (exit 3)
	if errors.Is(err, stpdocx.ErrInputNotFound) ||
		errors.Is(err, stpdocx.ErrWrite) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoDocuments) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrUnknownTopic) ||
		errors.Is(err, stpdocx.ErrUnsupportedExtension) ||
		errors.Is(err, stpdocx.ErrInvalidPolicy) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) {
		return ExitUsage
	}

	return ExitGeneral
}

// formatError renders err with the hints matching its cause. cfg supplies
// context such as whether strict images were requested; it may be nil.
func formatError(err error, cfg *config.Config) string {
	msg := "error: " + err.Error()

	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		msg += hints.ForConfigNotFound(config.SearchPaths(config.AppDir))
	case errors.Is(err, stpdocx.ErrUnsupportedExtension):
		msg += hints.ForUnsupportedExtension()
	case errors.Is(err, stpdocx.ErrInvalidPolicy):
		msg += hints.ForInvalidPolicy()
	case errors.Is(err, stpdocx.ErrMissingSectionContext):
		msg += hints.ForMissingSectionContext()
	case errors.Is(err, stpdocx.ErrImageNotFound):
		msg += hints.ForImageNotFound(cfg != nil && cfg.StrictImages)
	case errors.Is(err, yamldoc.ErrSchema):
		msg += hints.ForYAMLSchema()
	case errors.Is(err, stpdocx.ErrWrite):
		msg += hints.ForOutputDirectory()
	case errors.Is(err, assets.ErrStyleNotFound):
		msg += hints.ForPreviewStyle(assets.StyleNames())
	}

	return msg
}
