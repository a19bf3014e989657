package stpdocx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-stpdocx/internal/logging"
	"github.com/alnah/go-stpdocx/internal/numbering"
	"github.com/alnah/go-stpdocx/internal/yamldoc"
)

// Section context policies. See WithPolicy.
const (
	PolicySectionZero = numbering.PolicySectionZero
	PolicyStrict      = numbering.PolicyStrict
)

// Logger receives progress messages. Arguments after msg are key/value pairs.
type Logger = logging.Logger

// Format identifies the input syntax.
type Format int

// Supported input formats. FormatAuto picks the format from
// Input.SourcePath when it has a known extension, else from the content.
const (
	FormatAuto Format = iota
	FormatMarkdown
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	}
	return "auto"
}

// DetectFormat maps a file extension to a Format. Matching is
// case-insensitive.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
}

// SniffFormat guesses the format of content. A first non-blank line of the
// form "key:" naming a YAML schema key means YAML. Anything else, front
// matter included, is Markdown.
func SniffFormat(content []byte) Format {
	for line := range strings.Lines(string(content)) {
		line = strings.TrimRight(line, " \t\r\n")
		if line == "" {
			continue
		}
		key, _, ok := strings.Cut(line, ":")
		if ok && key == strings.TrimSpace(key) && yamldoc.IsRootKey(key) {
			return FormatYAML
		}
		return FormatMarkdown
	}
	return FormatMarkdown
}

// Input holds one document to convert.
type Input struct {
	Content    []byte   // Markdown or YAML source (required)
	Format     Format   // FormatAuto detects from SourcePath, then content
	SourcePath string   // optional, relative images resolve against its directory
	Policy     string   // optional, overrides front matter and converter policy
	Unnumbered []string // optional, added to the converter's unnumbered titles
}

// Stats counts the numbered entities of a converted document.
type Stats struct {
	Headings int
	Figures  int
	Tables   int
	Formulas int
}

// Result holds the output of a conversion.
type Result struct {
	DOCX  []byte
	HTML  []byte // set only when the HTML preview is enabled and the input is Markdown
	Stats Stats
}

// converterConfig holds the settings applied by Option functions.
type converterConfig struct {
	policy       string
	unnumbered   []string
	assetDir     string
	strictImages bool
	codeStyle    string
	htmlPreview  bool
	previewStyle string
	log          logging.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithPolicy sets the default section context policy, PolicySectionZero or
// PolicyStrict. An unknown value makes NewConverter fail.
func WithPolicy(policy string) Option {
	return func(c *Converter) {
		c.cfg.policy = policy
	}
}

// WithUnnumbered adds heading titles that are never numbered, such as
// "Введение" or "Заключение". Matching ignores case and surrounding space.
func WithUnnumbered(titles ...string) Option {
	return func(c *Converter) {
		c.cfg.unnumbered = append(c.cfg.unnumbered, titles...)
	}
}

// WithAssetDir sets the directory searched first for relative image paths.
func WithAssetDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetDir = dir
	}
}

// WithStrictImages makes missing or unreadable images an error instead of a
// placeholder paragraph.
func WithStrictImages(strict bool) Option {
	return func(c *Converter) {
		c.cfg.strictImages = strict
	}
}

// WithCodeStyle selects the chroma style used to color code blocks.
func WithCodeStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.codeStyle = name
	}
}

// WithHTMLPreview enables the HTML rendition in Result.HTML.
func WithHTMLPreview(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.htmlPreview = enabled
	}
}

// WithPreviewStyle names the stylesheet of the HTML preview. The asset
// directory's styles/<name>.css wins over the embedded styles "gost" and
// "plain". Empty selects "gost".
func WithPreviewStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.previewStyle = name
	}
}

// WithLogger sets the logger. Nil keeps the silent default.
func WithLogger(l Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.cfg.log = l
		}
	}
}
