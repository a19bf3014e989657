package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-stpdocx/internal/document"
)

// ErrMarkdownParse indicates the Markdown source could not be loaded.
var ErrMarkdownParse = errors.New("markdown parse failed")

var (
	tableCaptionPattern = regexp.MustCompile(`(?i)^\s*(?:table|таблица)\s*:\s*(.*)$`)
	pageBreakPattern    = regexp.MustCompile(`(?i)^\s*(?:\\newpage|\\pagebreak|<!--\s*page-?break\s*-->)\s*$`)
	termPrefixes        = []string{"где ", "where "}
)

// MarkdownLoader turns Markdown with $-delimited math into a block tree.
type MarkdownLoader struct {
	md  goldmark.Markdown
	pre MarkdownPreprocessor
}

// NewMarkdownLoader creates a loader with GFM tables and the math extension.
func NewMarkdownLoader() *MarkdownLoader {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			Math,
		),
	)
	return &MarkdownLoader{md: md, pre: &CommonMarkPreprocessor{}}
}

// Load parses source. Front matter settings are copied to the document Meta.
func (l *MarkdownLoader) Load(ctx context.Context, source []byte) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarkdownParse, err)
	}

	content := []byte(l.pre.PreprocessMarkdown(ctx, string(body)))
	root := l.md.Parser().Parse(text.NewReader(content))

	c := &astConverter{src: content, captions: make(map[*extast.Table]string)}
	doc := &document.Document{
		Blocks: c.blocks(root),
		Meta: document.Meta{
			Title:      meta.Title,
			Policy:     meta.Policy,
			Unnumbered: meta.Unnumbered,
		},
	}
	return doc, nil
}

// astConverter maps goldmark nodes to document blocks.
type astConverter struct {
	src       []byte
	highlight bool
	captions  map[*extast.Table]string // captions written above their table
}

func (c *astConverter) blocks(parent ast.Node) []document.Block {
	return c.blocksFrom(parent.FirstChild())
}

// blocksFrom converts first and every sibling after it.
func (c *astConverter) blocksFrom(first ast.Node) []document.Block {
	var out []document.Block
	var formula *document.Formula // formula still collecting terms

	for n := first; n != nil; n = n.NextSibling() {
		if formula != nil && isTextBlock(n) {
			if terms := c.termLines(n); terms != nil {
				formula.Terms = append(formula.Terms, terms...)
				continue
			}
		}
		formula = nil

		switch v := n.(type) {
		case *ast.Heading:
			out = append(out, &document.Heading{Level: v.Level, Text: c.plain(v)})

		case *ast.Paragraph, *ast.TextBlock:
			out = append(out, c.paragraph(n, out)...)

		case *ast.List:
			out = append(out, c.list(v))

		case *ast.FencedCodeBlock:
			lang := strings.ToLower(string(v.Language(c.src)))
			code := c.lines(v)
			if lang == "math" || lang == "latex" {
				formula = &document.Formula{Expr: strings.Join(strings.Fields(code), " ")}
				out = append(out, formula)
				continue
			}
			out = append(out, &document.CodeBlock{Language: lang, Code: code})

		case *ast.CodeBlock:
			out = append(out, &document.CodeBlock{Code: c.lines(v)})

		case *ast.ThematicBreak:
			out = append(out, &document.Rule{})

		case *ast.Blockquote:
			out = append(out, c.blocks(v)...)

		case *ast.HTMLBlock:
			raw := c.lines(v)
			if v.HasClosure() {
				raw += string(v.ClosureLine.Value(c.src))
			}
			if pageBreakPattern.MatchString(strings.TrimSpace(raw)) {
				out = append(out, &document.PageBreak{})
			}

		case *extast.Table:
			out = append(out, c.table(v))

		case *MathBlock:
			formula = &document.Formula{Expr: v.Expr}
			out = append(out, formula)
		}
	}
	return out
}

func isTextBlock(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

// paragraph converts a paragraph node. It can yield images, a page break, a
// caption absorbed by a neighbouring table, or a plain paragraph.
func (c *astConverter) paragraph(n ast.Node, prev []document.Block) []document.Block {
	if imgs := c.imagesOnly(n); imgs != nil {
		return imgs
	}

	plain := c.plain(n)
	if pageBreakPattern.MatchString(plain) {
		return []document.Block{&document.PageBreak{}}
	}
	if m := tableCaptionPattern.FindStringSubmatch(plain); m != nil {
		caption := strings.TrimSpace(m[1])
		if next, ok := n.NextSibling().(*extast.Table); ok {
			c.captions[next] = caption
			return nil
		}
		if len(prev) > 0 {
			if t, ok := prev[len(prev)-1].(*document.Table); ok && t.Caption == "" {
				t.Caption = caption
				return nil
			}
		}
	}

	c.highlight = false
	inlines := c.inlines(n, document.Text{}, nil)
	if len(inlines) == 0 {
		return nil
	}
	return []document.Block{&document.Paragraph{Inlines: inlines}}
}

// imagesOnly returns one Image block per image when the paragraph holds
// nothing but images and whitespace.
func (c *astConverter) imagesOnly(n ast.Node) []document.Block {
	var out []document.Block
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch v := ch.(type) {
		case *ast.Image:
			out = append(out, &document.Image{
				Path:    string(v.Destination),
				Alt:     c.plain(v),
				Caption: string(v.Title),
			})
		case *ast.Text:
			if len(bytes.TrimSpace(v.Segment.Value(c.src))) != 0 {
				return nil
			}
		default:
			return nil
		}
	}
	return out
}

// termLines returns the symbol explanations of a paragraph following a
// formula, or nil when any line does not look like one.
func (c *astConverter) termLines(n ast.Node) []string {
	lines := c.textLines(n)
	if len(lines) == 0 {
		return nil
	}
	for _, line := range lines {
		if !looksLikeTerm(line) {
			return nil
		}
	}
	terms := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := stripTermPrefix(line); s != "" {
			terms = append(terms, s)
		}
	}
	return terms
}

func looksLikeTerm(line string) bool {
	if strings.Contains(line, "-") || strings.Contains(line, "—") || strings.Contains(line, "–") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(line), termPrefixes[0])
}

func stripTermPrefix(line string) string {
	s := strings.TrimSpace(line)
	lower := strings.ToLower(s)
	for _, p := range termPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// textLines splits paragraph text on soft and hard line breaks.
func (c *astConverter) textLines(n ast.Node) []string {
	lines := []string{""}
	var walk func(ast.Node)
	walk = func(parent ast.Node) {
		for ch := parent.FirstChild(); ch != nil; ch = ch.NextSibling() {
			switch v := ch.(type) {
			case *ast.Text:
				lines[len(lines)-1] += string(v.Segment.Value(c.src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					lines = append(lines, "")
				}
			case *ast.String:
				lines[len(lines)-1] += string(v.Value)
			case *InlineMath:
				lines[len(lines)-1] += v.Expr
			default:
				walk(ch)
			}
		}
	}
	walk(n)

	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(stripMarks(l)); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (c *astConverter) list(l *ast.List) *document.List {
	out := &document.List{Ordered: l.IsOrdered()}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var li document.ListItem
		first := item.FirstChild()
		if first != nil && isTextBlock(first) {
			c.highlight = false
			li.Inlines = c.inlines(first, document.Text{}, nil)
			first = first.NextSibling()
		}
		li.Children = c.blocksFrom(first)
		out.Items = append(out.Items, li)
	}
	return out
}

func (c *astConverter) table(t *extast.Table) *document.Table {
	out := &document.Table{Caption: c.captions[t]}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(c.plain(cell)))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			out.Header = cells
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// inlines flattens inline children into styled runs, merging neighbours
// that share a style.
func (c *astConverter) inlines(parent ast.Node, style document.Text, out []document.Inline) []document.Inline {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Text:
			out = c.appendText(out, style, string(v.Segment.Value(c.src)))
			if v.SoftLineBreak() || v.HardLineBreak() {
				out = c.appendText(out, style, " ")
			}
		case *ast.String:
			out = c.appendText(out, style, string(v.Value))
		case *ast.Emphasis:
			s := style
			if v.Level >= 2 {
				s.Bold = true
			} else {
				s.Italic = true
			}
			out = c.inlines(v, s, out)
		case *extast.Strikethrough:
			s := style
			s.Strike = true
			out = c.inlines(v, s, out)
		case *ast.CodeSpan:
			s := style
			s.Code = true
			out = c.appendText(out, s, c.plain(v))
		case *ast.Link:
			label := c.plain(v)
			if label == "" {
				label = string(v.Destination)
			}
			out = append(out, document.Link{Text: label, URL: string(v.Destination)})
		case *ast.AutoLink:
			out = append(out, document.Link{Text: string(v.Label(c.src)), URL: string(v.URL(c.src))})
		case *ast.Image:
			if alt := c.plain(v); alt != "" {
				out = c.appendText(out, style, alt)
			}
		case *InlineMath:
			out = append(out, document.Equation{Expr: v.Expr})
		case *extast.TaskCheckBox:
			mark := "☐ "
			if v.IsChecked {
				mark = "☑ "
			}
			out = c.appendText(out, style, mark)
		case *ast.RawHTML:
			// dropped
		default:
			out = c.inlines(n, style, out)
		}
	}
	return out
}

// appendText splits s on highlight placeholders and appends the pieces.
func (c *astConverter) appendText(out []document.Inline, style document.Text, s string) []document.Inline {
	for s != "" {
		i := strings.IndexAny(s, MarkStartPlaceholder+MarkEndPlaceholder)
		chunk := s
		if i >= 0 {
			chunk = s[:i]
		}
		if chunk != "" {
			t := style
			t.Value = chunk
			t.Highlight = c.highlight
			out = mergeText(out, t)
		}
		if i < 0 {
			break
		}
		r := s[i:]
		c.highlight = strings.HasPrefix(r, MarkStartPlaceholder)
		s = r[len(MarkStartPlaceholder):]
	}
	return out
}

func mergeText(out []document.Inline, t document.Text) []document.Inline {
	if len(out) > 0 {
		if last, ok := out[len(out)-1].(document.Text); ok {
			v := last.Value
			last.Value = t.Value
			if last == t {
				last.Value = v + t.Value
				out[len(out)-1] = last
				return out
			}
		}
	}
	return append(out, t)
}

// plain returns the text content of n without styling.
func (c *astConverter) plain(n ast.Node) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(parent ast.Node) {
		for ch := parent.FirstChild(); ch != nil; ch = ch.NextSibling() {
			switch v := ch.(type) {
			case *ast.Text:
				b.Write(v.Segment.Value(c.src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(v.Value)
			case *InlineMath:
				b.WriteString(v.Expr)
			default:
				walk(ch)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(stripMarks(b.String()))
}

func (c *astConverter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func stripMarks(s string) string {
	return strings.NewReplacer(MarkStartPlaceholder, "", MarkEndPlaceholder, "").Replace(s)
}
