// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-stpdocx/internal/config"
)

// SupportedExtensions is the list shown when an input type is rejected.
var SupportedExtensions = []string{".md", ".markdown", ".yaml", ".yml"}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	userDir := filepath.Join(userConfigDir(), config.AppDir)
	for _, p := range searchedPaths {
		if userDir != config.AppDir && strings.HasPrefix(p, userDir) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output write errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForUnsupportedExtension lists the accepted input extensions.
func ForUnsupportedExtension() string {
	return format("supported inputs: " + strings.Join(SupportedExtensions, ", "))
}

// ForMissingSectionContext explains how to give numbered entities a section.
func ForMissingSectionContext() string {
	return formatHints([]string{
		"add a top-level heading (# Title or title:) before the first figure, table or formula",
		"or use --policy section-zero to number them 0.n",
	})
}

// ForImageNotFound suggests where images are looked up.
func ForImageNotFound(strict bool) string {
	h := []string{"image paths are resolved against --asset-dir, then the input file's directory"}
	if strict {
		h = append(h, "drop --strict-images to render a placeholder instead")
	}
	return formatHints(h)
}

// ForYAMLSchema points to the accepted YAML keys.
func ForYAMLSchema() string {
	return format("run 'stpdocx help yaml' for the accepted keys")
}

// ForInvalidPolicy lists the accepted policies.
func ForInvalidPolicy() string {
	return format("use --policy " + config.DefaultConfig().Policy + " or --policy strict")
}

// ForPreviewStyle lists the embedded preview styles and where custom ones go.
func ForPreviewStyle(embedded []string) string {
	return formatHints([]string{
		"embedded styles: " + strings.Join(embedded, ", "),
		"custom styles live in <asset-dir>/styles/<name>.css",
	})
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
