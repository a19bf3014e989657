// Package docxwriter renders an annotated block tree into a DOCX document
// laid out per СТП 01–2024.
//
// The page template (A4, fixed margins, Times New Roman 14 pt, exact 18 pt
// line spacing) is applied once per document. Blocks are emitted strictly in
// input order; labels must already be resolved by numbering.Annotate.
package docxwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	docx "github.com/fumiama/go-docx"

	"github.com/alnah/go-stpdocx/internal/document"
	"github.com/alnah/go-stpdocx/internal/fileutil"
	"github.com/alnah/go-stpdocx/internal/gost"
	"github.com/alnah/go-stpdocx/internal/logging"
	"github.com/alnah/go-stpdocx/internal/pipeline"
)

// Sentinel errors.
var (
	ErrImageNotFound    = errors.New("image not found")
	ErrImageUnsupported = errors.New("unsupported image format")
)

const (
	highlightColor = "yellow"
	linkColor      = "0563C1"
	numberColumn   = 1134 // width of the "(m.n)" cell, 2 cm
)

// Option configures a Writer.
type Option func(*Writer)

// WithAssetDir sets the directory searched first for relative image paths.
func WithAssetDir(dir string) Option {
	return func(w *Writer) {
		w.assetDir = dir
	}
}

// WithStrictImages makes missing or undecodable images fail the render
// instead of producing a placeholder paragraph.
func WithStrictImages(strict bool) Option {
	return func(w *Writer) {
		w.strictImages = strict
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithCodeStyle selects the chroma style used to color code tokens.
func WithCodeStyle(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.codeStyle = name
		}
	}
}

// Writer emits DOCX documents. A Writer holds no per-document state and is
// safe for concurrent use.
type Writer struct {
	assetDir     string
	strictImages bool
	codeStyle    string
	log          logging.Logger
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{
		codeStyle: pipeline.CodeStyle,
		log:       logging.NoOp(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Render builds the DOCX object model for doc.
func (w *Writer) Render(doc *document.Document) (*docx.Docx, error) {
	if doc == nil {
		return nil, errors.New("docxwriter: nil document")
	}

	r := &renderer{
		w:         w,
		f:         docx.New().WithDefaultTheme(),
		codeStyle: styles.Get(w.codeStyle),
	}
	if doc.Meta.Source != "" {
		r.sourceDir = filepath.Dir(doc.Meta.Source)
	}

	w.log.Debug("rendering document", "blocks", len(doc.Blocks), "source", doc.Meta.Source)
	if err := r.blocks(doc.Blocks); err != nil {
		return nil, err
	}

	// The trailing sectPr governs the whole body.
	r.f.Document.Body.Items = append(r.f.Document.Body.Items, pageSection())
	return r.f, nil
}

// WriteTo renders doc and serializes it to out.
func (w *Writer) WriteTo(out io.Writer, doc *document.Document) error {
	f, err := w.Render(doc)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("serializing docx: %w", err)
	}
	return nil
}

func pageSection() *docx.SectPr {
	return &docx.SectPr{
		PgSz: &docx.PgSz{W: gost.PageWidth, H: gost.PageHeight},
		PgMar: &docx.PgMar{
			Top:    gost.MarginTop,
			Left:   gost.MarginLeft,
			Bottom: gost.MarginBottom,
			Right:  gost.MarginRight,
			Header: gost.MarginHeader,
			Footer: gost.MarginFooter,
		},
	}
}

// renderer carries the state of one Render call.
type renderer struct {
	w         *Writer
	f         *docx.Docx
	codeStyle *chroma.Style
	sourceDir string

	seenTopHeading bool
	freshPage      bool // last emitted block was an explicit page break
}

func (r *renderer) blocks(blocks []document.Block) error {
	for i, b := range blocks {
		var next document.Block
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}
		if err := r.block(b, next); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) block(b document.Block, next document.Block) error {
	rule, ok := gost.RuleFor(b.Kind())
	if !ok {
		return fmt.Errorf("docxwriter: no style for %v", b.Kind())
	}

	fresh := false
	defer func() { r.freshPage = fresh }()

	if rule.SpacerBefore {
		r.spacer()
	}

	var err error
	switch v := b.(type) {
	case *document.Heading:
		r.heading(v, rule)
	case *document.Paragraph:
		inlines := v.Inlines
		if _, ok := next.(*document.List); ok {
			inlines = withColon(inlines)
		}
		r.inlines(r.para(rule), rule, inlines)
	case *document.List:
		err = r.list(v, rule)
	case *document.CodeBlock:
		r.code(v, rule)
	case *document.Rule:
		format(r.para(rule).AddText(gost.RuleText), rule)
	case *document.PageBreak:
		r.f.AddParagraph().AddPageBreaks()
		fresh = true
	case *document.Image:
		err = r.image(v, rule)
	case *document.Table:
		r.table(v, rule)
	case *document.Formula:
		r.formula(v, rule)
	default:
		return fmt.Errorf("docxwriter: unknown block %T", b)
	}
	if err != nil {
		return err
	}

	if rule.SpacerAfter {
		r.spacer()
	}
	return nil
}

func (r *renderer) heading(h *document.Heading, rule gost.StyleRule) {
	if h.Level <= 1 {
		if r.seenTopHeading && !r.freshPage {
			r.f.AddParagraph().AddPageBreaks()
		}
		r.seenTopHeading = true
	}

	text := h.Text
	if h.Level <= 1 {
		text = strings.ToUpper(text)
	}
	if h.Label != "" {
		text = h.Label + " " + text
	} else {
		rule.Justify = gost.JustifyCenter
	}

	format(r.para(rule).AddText(text), rule)
}

func (r *renderer) list(l *document.List, rule gost.StyleRule) error {
	for i, item := range l.Items {
		p := r.para(rule)
		marker := gost.BulletMarker + " "
		if l.Ordered {
			marker = strconv.Itoa(i+1) + " "
		}
		format(p.AddText(marker), rule)
		r.inlines(p, rule, punctuate(item.Inlines, i == len(l.Items)-1))

		if err := r.blocks(item.Children); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) code(c *document.CodeBlock, rule gost.StyleRule) {
	p := r.para(rule)

	lexer := lexers.Get(c.Language)
	if c.Language == "" || lexer == nil {
		format(p.AddText(c.Code), rule)
		return
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, c.Code)
	if err != nil {
		r.w.log.Debug("tokenise failed, emitting plain code", "language", c.Language, "error", err)
		format(p.AddText(c.Code), rule)
		return
	}

	tokens := it.Tokens()
	if n := len(tokens); n > 0 {
		tokens[n-1].Value = strings.TrimRight(tokens[n-1].Value, "\n")
	}
	for _, tok := range tokens {
		if tok.Value == "" {
			continue
		}
		run := format(p.AddText(tok.Value), rule)
		entry := r.codeStyle.Get(tok.Type)
		if entry.Colour.IsSet() {
			run.Color(strings.TrimPrefix(entry.Colour.String(), "#"))
		}
		if entry.Bold == chroma.Yes {
			run.Bold()
		}
	}
}

func (r *renderer) image(img *document.Image, rule gost.StyleRule) error {
	p := r.para(rule)
	data, err := r.readImage(img.Path)
	if err == nil {
		_, err = p.AddInlineDrawing(data)
		if err != nil {
			err = fmt.Errorf("%w: %s: %v", ErrImageUnsupported, img.Path, err)
		}
	}
	if err != nil {
		if r.w.strictImages {
			return err
		}
		r.w.log.Warn("image replaced by placeholder", "path", img.Path, "error", err)
		format(p.AddText("[Missing image: "+img.Path+"]"), rule)
	}

	caption := img.Caption
	if strings.TrimSpace(caption) == "" {
		caption = img.Alt
	}
	format(r.para(rule).AddText(gost.FigureCaption(img.Label, caption)), rule)
	return nil
}

// readImage resolves a relative path against the asset directory, then the
// source file's directory, then the working directory.
func (r *renderer) readImage(path string) ([]byte, error) {
	if path == "" || fileutil.IsURL(path) {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = candidates[:0]
		for _, dir := range []string{r.w.assetDir, r.sourceDir} {
			if dir != "" {
				candidates = append(candidates, filepath.Join(dir, path))
			}
		}
		candidates = append(candidates, path)
	}

	for _, c := range candidates {
		if !fileutil.FileExists(c) {
			continue
		}
		data, err := os.ReadFile(c) // #nosec G304 -- author-supplied image path
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrImageNotFound, path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
}

func (r *renderer) table(t *document.Table, rule gost.StyleRule) {
	format(r.para(rule).AddText(gost.TableCaption(t.Label, t.Caption)), rule)

	rows := make([][]string, 0, len(t.Rows)+1)
	if len(t.Header) > 0 {
		rows = append(rows, t.Header)
	}
	rows = append(rows, t.Rows...)

	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}

	widths := make([]int64, cols)
	for i := range widths {
		widths[i] = int64(gost.TextWidth / cols)
	}
	tbl := r.f.AddTableTwips(make([]int64, len(rows)), widths, gost.TextWidth, nil)
	tbl.TableProperties.Width = &docx.WTableWidth{W: gost.TextWidth, Type: "dxa"}

	cellRule := rule
	cellRule.FirstLine = 0
	for i, row := range rows {
		for j, cell := range tbl.TableRows[i].TableCells {
			var text string
			if j < len(row) {
				text = row[j]
			}
			run := format(styled(cell.AddParagraph(), cellRule).AddText(text), cellRule)
			if i == 0 && len(t.Header) > 0 {
				run.Bold()
			}
		}
	}
}

func (r *renderer) formula(f *document.Formula, rule gost.StyleRule) {
	tbl := r.f.AddTableTwips([]int64{0}, []int64{gost.TextWidth - numberColumn, numberColumn}, gost.TextWidth, nil)
	tbl.TableProperties.Width = &docx.WTableWidth{W: gost.TextWidth, Type: "dxa"}
	tbl.TableProperties.TableBorders = noBorders()

	cells := tbl.TableRows[0].TableCells
	format(styled(cells[0].AddParagraph(), rule).AddText(gost.LatexToUnicode(f.Expr)), rule)
	format(styled(cells[1].AddParagraph(), rule).AddText(gost.FormulaNumber(f.Label)), rule)

	termRule := gost.Rules[document.KindParagraph]
	termRule.Justify = gost.JustifyLeft
	termRule.FirstLine = 0
	for i, term := range f.Terms {
		symbol, desc := splitTerm(term)
		p := r.para(termRule)
		p.Properties.Tabs = &docx.Tabs{Tabs: []*docx.Tab{{Val: "left", Position: gost.TermTabStop}}}

		var b strings.Builder
		if i == 0 {
			b.WriteString(gost.TermsLead + " ")
		}
		b.WriteString(gost.LatexToUnicode(symbol))
		if desc != "" {
			b.WriteString("\t" + gost.CaptionDash + " " + desc)
		}
		if i == len(f.Terms)-1 {
			b.WriteString(".")
		} else {
			b.WriteString(";")
		}
		format(p.AddText(b.String()), termRule)
	}
}

func (r *renderer) inlines(p *docx.Paragraph, rule gost.StyleRule, inlines []document.Inline) {
	for _, in := range inlines {
		switch v := in.(type) {
		case document.Text:
			runRule := rule
			if v.Code {
				runRule.Font = gost.FontCode
			}
			run := format(p.AddText(v.Value), runRule)
			if v.Bold {
				run.Bold()
			}
			if v.Italic {
				run.Italic()
			}
			if v.Highlight {
				run.Highlight(highlightColor)
			}
			if v.Strike {
				run.Strike(true)
			}
		case document.Link:
			text := v.Text
			if text == "" {
				text = v.URL
			}
			format(p.AddText(text), rule).Underline("single").Color(linkColor)
		case document.Equation:
			format(p.AddText(gost.LatexToUnicode(v.Expr)), rule)
		}
	}
}

// para appends a body paragraph styled by rule.
func (r *renderer) para(rule gost.StyleRule) *docx.Paragraph {
	return styled(r.f.AddParagraph(), rule)
}

// styled applies paragraph-level formatting.
func styled(p *docx.Paragraph, rule gost.StyleRule) *docx.Paragraph {
	p.Justification(rule.Justify)
	if rule.Line > 0 {
		p.Properties.Spacing = &docx.Spacing{Line: rule.Line, LineRule: rule.LineRule}
	}
	if rule.FirstLine > 0 {
		p.Properties.Ind = &docx.Ind{FirstLine: rule.FirstLine}
	}
	return p
}

// spacer emits an empty paragraph at body line spacing.
func (r *renderer) spacer() {
	rule := gost.Rules[document.KindParagraph]
	rule.FirstLine = 0
	r.para(rule)
}

// format applies run-level formatting.
func format(run *docx.Run, rule gost.StyleRule) *docx.Run {
	size := strconv.Itoa(rule.SizeHalfPoints)
	run.Font(rule.Font, rule.Font, rule.Font, "").Size(size).SizeCs(size)
	if rule.Bold {
		run.Bold()
	}
	return run
}

func noBorders() *docx.WTableBorders {
	none := func() *docx.WTableBorder { return &docx.WTableBorder{Val: "nil"} }
	return &docx.WTableBorders{
		Top: none(), Left: none(), Bottom: none(), Right: none(),
		InsideH: none(), InsideV: none(),
	}
}
