package stpdocx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-stpdocx/internal/assets"
	"github.com/alnah/go-stpdocx/internal/docxwriter"
	"github.com/alnah/go-stpdocx/internal/document"
	"github.com/alnah/go-stpdocx/internal/fileutil"
	"github.com/alnah/go-stpdocx/internal/logging"
	"github.com/alnah/go-stpdocx/internal/numbering"
	"github.com/alnah/go-stpdocx/internal/pipeline"
	"github.com/alnah/go-stpdocx/internal/yamldoc"
)

// documentLoader turns source bytes into an unannotated block tree.
type documentLoader interface {
	Load(ctx context.Context, source []byte) (*document.Document, error)
}

// Compile-time interface checks.
var (
	_ documentLoader         = (*pipeline.MarkdownLoader)(nil)
	_ documentLoader         = (*yamldoc.Loader)(nil)
	_ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)
)

// Converter turns Markdown or YAML sources into DOCX documents.
// A Converter holds no per-document state and is safe for concurrent use.
type Converter struct {
	cfg      converterConfig
	markdown documentLoader
	yaml     documentLoader
	preview  pipeline.HTMLConverter
	writer   *docxwriter.Writer
	log      logging.Logger
}

// NewConverter creates a Converter. Returns ErrInvalidPolicy if WithPolicy
// named an unknown policy, and ErrPreview if the preview style cannot be
// loaded.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:      converterConfig{policy: PolicySectionZero, log: logging.NoOp()},
		markdown: pipeline.NewMarkdownLoader(),
		yaml:     yamldoc.NewLoader(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := numbering.ValidatePolicy(c.cfg.policy); err != nil {
		return nil, err
	}

	c.log = c.cfg.log
	c.writer = docxwriter.New(
		docxwriter.WithAssetDir(c.cfg.assetDir),
		docxwriter.WithStrictImages(c.cfg.strictImages),
		docxwriter.WithCodeStyle(c.cfg.codeStyle),
		docxwriter.WithLogger(logging.Named(c.log, "docx")),
	)
	if c.cfg.htmlPreview {
		preview, err := newPreview(c.cfg.assetDir, c.cfg.previewStyle)
		if err != nil {
			return nil, err
		}
		c.preview = preview
	}

	return c, nil
}

// newPreview loads the preview stylesheet once so a bad style name fails
// before any document is converted.
func newPreview(assetDir, style string) (*pipeline.GoldmarkConverter, error) {
	if style == "" {
		style = assets.DefaultStyleName
	}
	custom := ""
	if assetDir != "" && fileutil.DirExists(assetDir) {
		custom = assetDir
	}
	resolver, err := assets.NewAssetResolver(custom)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreview, err)
	}
	css, err := resolver.LoadStyle(style)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreview, err)
	}

	preview := pipeline.NewGoldmarkConverter()
	preview.Stylesheet = css
	return preview, nil
}

// Convert loads, numbers and renders one document.
// The policy applied is Input.Policy, else the front matter policy, else the
// converter default. Unnumbered titles from all three sources are merged.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	doc, err := c.load(ctx, input)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	policy := firstNonEmpty(input.Policy, doc.Meta.Policy, c.cfg.policy)
	unnumbered := make([]string, 0, len(c.cfg.unnumbered)+len(input.Unnumbered)+len(doc.Meta.Unnumbered))
	unnumbered = append(unnumbered, c.cfg.unnumbered...)
	unnumbered = append(unnumbered, input.Unnumbered...)
	unnumbered = append(unnumbered, doc.Meta.Unnumbered...)

	if err := numbering.Annotate(doc, numbering.Options{Policy: policy, Unnumbered: unnumbered}); err != nil {
		if errors.Is(err, ErrInvalidPolicy) || errors.Is(err, ErrMissingSectionContext) {
			return nil, err
		}
		return nil, fmt.Errorf("numbering: %w", err)
	}
	c.log.Debug("labels resolved", "policy", policy, "blocks", len(doc.Blocks))

	var buf bytes.Buffer
	if err := c.writer.WriteTo(&buf, doc); err != nil {
		switch {
		case errors.Is(err, ErrImageNotFound):
			return nil, err
		case errors.Is(err, docxwriter.ErrImageUnsupported):
			return nil, fmt.Errorf("%w: %w", ErrImageNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &Result{DOCX: buf.Bytes(), Stats: countEntities(doc)}

	if c.preview != nil && formatOf(input) == FormatMarkdown {
		html, err := c.renderPreview(ctx, input)
		if err != nil {
			return nil, err
		}
		res.HTML = []byte(html)
	}

	return res, nil
}

// ConvertFile converts inputPath and writes the DOCX to outputPath, or next
// to the input when outputPath is empty. When the HTML preview is enabled it
// lands beside the DOCX with an .html extension. Outputs are written
// atomically: if any of them cannot be written, none is left on disk.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()

	format, err := DetectFormat(inputPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}

	res, err := c.Convert(ctx, Input{Content: content, Format: format, SourcePath: inputPath})
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = fileutil.ReplaceExt(inputPath, ".docx")
	}
	if err := writeOutputs(outputPath, res); err != nil {
		return nil, err
	}

	c.log.Info("converted", "input", inputPath, "output", outputPath,
		"format", format.String(), "duration", time.Since(start).Round(time.Millisecond).String())
	return res, nil
}

// writeOutputs stages the DOCX and the optional preview, then publishes
// both or neither.
func writeOutputs(docxPath string, res *Result) error {
	type output struct {
		path string
		data []byte
	}
	outputs := []output{{docxPath, res.DOCX}}
	if res.HTML != nil {
		outputs = append(outputs, output{fileutil.ReplaceExt(docxPath, ".html"), res.HTML})
	}

	staged := make([]*fileutil.Staged, 0, len(outputs))
	for _, o := range outputs {
		s, err := fileutil.Stage(o.path, func(w io.Writer) error {
			_, err := w.Write(o.data)
			return err
		})
		if err != nil {
			for _, done := range staged {
				done.Discard()
			}
			return fmt.Errorf("%w: %s: %w", ErrWrite, o.path, err)
		}
		staged = append(staged, s)
	}

	if err := fileutil.CommitAll(staged...); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (c *Converter) validateInput(input Input) error {
	if len(bytes.TrimSpace(input.Content)) == 0 {
		return ErrEmptyInput
	}
	if err := numbering.ValidatePolicy(input.Policy); err != nil {
		return err
	}
	return nil
}

func (c *Converter) load(ctx context.Context, input Input) (*document.Document, error) {
	loader := c.markdown
	if formatOf(input) == FormatYAML {
		loader = c.yaml
	}

	doc, err := loader.Load(ctx, input.Content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if input.SourcePath != "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, input.SourcePath, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	doc.Meta.Source = input.SourcePath
	return doc, nil
}

func (c *Converter) renderPreview(ctx context.Context, input Input) (string, error) {
	html, err := c.preview.ToHTML(ctx, string(input.Content))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPreview, err)
	}

	dir := c.cfg.assetDir
	if input.SourcePath != "" {
		dir = filepath.Dir(input.SourcePath)
	}
	html, err = pipeline.RewriteImagePaths(html, dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPreview, err)
	}
	return html, nil
}

func formatOf(input Input) Format {
	if input.Format != FormatAuto {
		return input.Format
	}
	if input.SourcePath != "" {
		if f, err := DetectFormat(input.SourcePath); err == nil {
			return f
		}
	}
	return SniffFormat(input.Content)
}

func countEntities(doc *document.Document) Stats {
	var s Stats
	_ = document.Walk(doc.Blocks, func(b document.Block) error {
		switch b.(type) {
		case *document.Heading:
			s.Headings++
		case *document.Image:
			s.Figures++
		case *document.Table:
			s.Tables++
		case *document.Formula:
			s.Formulas++
		}
		return nil
	})
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
