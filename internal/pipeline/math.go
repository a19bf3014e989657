package pipeline

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-stpdocx/internal/gost"
)

// KindMathBlock is the node kind of a $$ display formula.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// KindInlineMath is the node kind of a $ inline formula.
var KindInlineMath = ast.NewNodeKind("InlineMath")

// MathBlock is a display formula delimited by $$ lines.
type MathBlock struct {
	ast.BaseBlock
	Expr   string
	closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Expr": n.Expr}, nil)
}

// InlineMath is a formula delimited by single dollars inside a paragraph.
type InlineMath struct {
	ast.BaseInline
	Expr string
}

// Kind implements ast.Node.
func (n *InlineMath) Kind() ast.NodeKind { return KindInlineMath }

// Dump implements ast.Node.
func (n *InlineMath) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Expr": n.Expr}, nil)
}

var dollars = []byte("$$")

type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], dollars) {
		return nil, parser.NoChildren
	}
	rest := bytes.TrimSpace(line[pos+len(dollars):])
	node := &MathBlock{}
	if i := bytes.Index(rest, dollars); i >= 0 {
		if len(bytes.TrimSpace(rest[i+len(dollars):])) > 0 {
			return nil, parser.NoChildren
		}
		node.Expr = string(bytes.TrimSpace(rest[:i]))
		node.closed = true
		return node, parser.NoChildren
	}
	node.Expr = string(rest)
	return node, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	trimmed := bytes.TrimSpace(line)
	newline := 1
	if len(line) == 0 || line[len(line)-1] != '\n' {
		newline = 0
	}
	if i := bytes.Index(trimmed, dollars); i >= 0 {
		n.appendLine(trimmed[:i])
		n.closed = true
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		return parser.Close
	}
	n.appendLine(trimmed)
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
	return parser.Continue | parser.NoChildren
}

func (n *MathBlock) appendLine(line []byte) {
	s := string(bytes.TrimSpace(line))
	if s == "" {
		return
	}
	if n.Expr != "" {
		n.Expr += " "
	}
	n.Expr += s
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

type inlineMathParser struct{}

func (s *inlineMathParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse accepts $x$ and $$x$$ on a single line. The opening delimiter must be
// followed by a non-space and the closing one preceded by a non-space and not
// followed by a digit, so prices like "$5 and $10" stay text.
func (s *inlineMathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	open := 1
	if len(line) > 1 && line[1] == '$' {
		open = 2
	}
	body := line[open:]
	if len(body) == 0 || body[0] == ' ' || body[0] == '\t' || body[0] == '\n' {
		return nil
	}
	for i := 0; i+open <= len(body); i++ {
		c := body[i]
		if c == '\n' {
			return nil
		}
		if c == '\\' {
			i++
			continue
		}
		if c != '$' || !bytes.HasPrefix(body[i:], bytes.Repeat([]byte{'$'}, open)) {
			continue
		}
		if i == 0 {
			return nil
		}
		prev := body[i-1]
		if prev == ' ' || prev == '\t' {
			return nil
		}
		after := i + open
		if open == 1 && after < len(body) && body[after] >= '0' && body[after] <= '9' {
			return nil
		}
		block.Advance(open + after)
		return &InlineMath{Expr: string(body[:i])}
	}
	return nil
}

type mathHTMLRenderer struct{}

func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathBlock, r.renderBlock)
	reg.Register(KindInlineMath, r.renderInline)
}

func (r *mathHTMLRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathBlock)
	_, _ = w.WriteString(`<div class="math display">`)
	_, _ = w.WriteString(html.EscapeString(gost.LatexToUnicode(n.Expr)))
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*InlineMath)
	_, _ = w.WriteString(`<span class="math inline">`)
	_, _ = w.WriteString(html.EscapeString(gost.LatexToUnicode(n.Expr)))
	_, _ = w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

// Math is a goldmark extension for $$ display and $ inline formulas.
var Math goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 650)),
		parser.WithInlineParsers(util.Prioritized(&inlineMathParser{}, 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathHTMLRenderer{}, 500)),
	)
}
