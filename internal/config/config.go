package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/alnah/go-stpdocx/internal/assets"
	"github.com/alnah/go-stpdocx/internal/fileutil"
	"github.com/alnah/go-stpdocx/internal/logging"
	"github.com/alnah/go-stpdocx/internal/numbering"
	"github.com/alnah/go-stpdocx/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
)

// AppDir is the directory under os.UserConfigDir searched for named configs.
const AppDir = "stpdocx"

// Limits on user-supplied values.
const (
	MaxWorkers          = 64
	MaxPathLength       = 4096
	MaxUnnumberedTitles = 50
	MaxTitleLength      = 200
)

// Config holds every setting that can come from a YAML file.
type Config struct {
	Policy       string       `yaml:"policy"`       // "section-zero" (default) or "strict"
	StrictImages bool         `yaml:"strictImages"` // missing images fail the conversion
	AssetDir     string       `yaml:"assetDir"`     // searched first for relative image paths
	Unnumbered   []string     `yaml:"unnumbered"`   // heading titles rendered without a number
	CodeStyle    string       `yaml:"codeStyle"`    // chroma style for code tokens
	Workers      int          `yaml:"workers"`      // 0 = auto
	Output       OutputConfig `yaml:"output"`
	Log          LogConfig    `yaml:"log"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir   string `yaml:"defaultDir"`   // empty = next to the source
	HTML         bool   `yaml:"html"`         // also write an HTML preview
	PreviewStyle string `yaml:"previewStyle"` // embedded or {assetDir}/styles name
}

// LogConfig defines logging options.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks the log level.
func (l LogConfig) Validate() error {
	levels := make([]any, len(logging.ValidLevels))
	for i, lv := range logging.ValidLevels {
		levels[i] = lv
	}
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(levels...).Error("must be one of "+strings.Join(logging.ValidLevels, ", "))),
	)
}

// Validate checks OutputConfig.
func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.DefaultDir, validation.Length(0, MaxPathLength)),
		validation.Field(&o.PreviewStyle, validation.By(safeStyleName)),
	)
}

// Validate checks value ranges. Called by LoadConfig, and available for
// callers that build a Config by hand.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Policy, validation.In(numbering.PolicySectionZero, numbering.PolicyStrict).
			Error("must be "+numbering.PolicySectionZero+" or "+numbering.PolicyStrict)),
		validation.Field(&c.AssetDir, validation.Length(0, MaxPathLength)),
		validation.Field(&c.Unnumbered,
			validation.Length(0, MaxUnnumberedTitles),
			validation.Each(validation.Required, validation.Length(0, MaxTitleLength))),
		validation.Field(&c.CodeStyle, validation.By(knownCodeStyle)),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(MaxWorkers)),
		validation.Field(&c.Output),
		validation.Field(&c.Log),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid,
			goerrors.FromOzzoValidation(err, "invalid config").WithTextCode("CONFIG"))
	}
	return nil
}

func safeStyleName(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if err := assets.ValidateAssetName(name); err != nil {
		return validation.NewError("validation_preview_style", "must be a bare style name")
	}
	return nil
}

func knownCodeStyle(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	for _, n := range styles.Names() {
		if n == name {
			return nil
		}
	}
	return validation.NewError("validation_code_style", "unknown chroma style")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Policy: numbering.PolicySectionZero,
		Log:    LogConfig{Level: logging.LevelInfo},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
// Tries the current directory then the user config directory, each with
// .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppDir, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
