package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-stpdocx/internal/assets"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// htmlTemplate wraps goldmark's fragment output in a complete HTML5 document.
const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter renders the HTML preview written next to a DOCX.
type GoldmarkConverter struct {
	md    goldmark.Markdown
	pre   MarkdownPreprocessor
	css   CSSInjector
	Title string

	// Stylesheet is injected into every page. Defaults to the embedded
	// GOST style.
	Stylesheet string
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, math and
// chroma syntax highlighting.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			Math,
			highlighting.NewHighlighting(
				highlighting.WithStyle(CodeStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)
	css, _ := assets.LoadStyle(assets.DefaultStyleName)
	return &GoldmarkConverter{md: md, pre: &CommonMarkPreprocessor{}, css: &CSSInjection{}, Title: "Document", Stylesheet: css}
}

// ToHTML converts Markdown content, front matter included, to a standalone
// HTML5 document styled like the DOCX output.
// goldmark has no context support, so conversion runs in a goroutine.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	meta, body, err := ParseFrontMatter([]byte(content))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	title := c.Title
	if meta.Title != "" {
		title = meta.Title
	}
	source := []byte(c.pre.PreprocessMarkdown(ctx, string(body)))

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert(source, &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		page := fmt.Sprintf(htmlTemplate, html.EscapeString(title), ConvertMarkPlaceholders(buf.String()))
		done <- result{html: page}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return c.css.InjectCSS(ctx, r.html, c.Stylesheet), nil
	}
}
