// Package document defines the format-neutral block tree produced by the
// Markdown and YAML loaders and consumed by the numbering pass and the DOCX
// emitter.
package document

import "strings"

// Kind identifies a block variant.
type Kind int

// Block kinds.
const (
	KindHeading Kind = iota
	KindParagraph
	KindList
	KindCodeBlock
	KindRule
	KindImage
	KindTable
	KindFormula
	KindPageBreak
)

var kindNames = [...]string{
	KindHeading:   "heading",
	KindParagraph: "paragraph",
	KindList:      "list",
	KindCodeBlock: "code block",
	KindRule:      "rule",
	KindImage:     "image",
	KindTable:     "table",
	KindFormula:   "formula",
	KindPageBreak: "page break",
}

// String returns the human-readable kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Block is one top-level element of a document.
// The set of implementations is closed: only types in this package satisfy it.
type Block interface {
	Kind() Kind
	isBlock()
}

// Inline is one span of paragraph content.
type Inline interface {
	isInline()
}

// Document is an ordered block sequence plus metadata.
type Document struct {
	Blocks []Block
	Meta   Meta
}

// Meta carries document-level settings picked up while loading.
type Meta struct {
	Title      string   // from front matter or the YAML title key
	Source     string   // input path, used to resolve relative images
	Policy     string   // section context policy override, empty = caller default
	Unnumbered []string // heading titles rendered without a number
}

// Heading is a section title. Level starts at 1.
type Heading struct {
	Level      int
	Text       string
	RawNumber  string // number typed by the author, e.g. "2.1"
	Unnumbered bool
	Label      string // resolved number, set by numbering.Annotate
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Inlines []Inline
}

// List is an ordered or bulleted list.
type List struct {
	Ordered bool
	Items   []ListItem
}

// ListItem holds the item's own text and any blocks nested under it.
type ListItem struct {
	Inlines  []Inline
	Children []Block
}

// CodeBlock is preformatted source text.
type CodeBlock struct {
	Language string
	Code     string
}

// Rule is a thematic break.
type Rule struct{}

// PageBreak forces the following content onto a new page.
type PageBreak struct{}

// Image is a figure with an optional caption.
type Image struct {
	Path    string
	Alt     string
	Caption string
	Label   string
}

// Table is a captioned grid with a header row.
type Table struct {
	Header  []string
	Rows    [][]string
	Caption string
	Label   string
}

// Formula is a display equation with optional symbol explanations.
type Formula struct {
	Expr   string
	Terms  []string
	Number string // number typed by the author, kept as the label when set
	Label  string
}

func (*Heading) Kind() Kind   { return KindHeading }
func (*Paragraph) Kind() Kind { return KindParagraph }
func (*List) Kind() Kind      { return KindList }
func (*CodeBlock) Kind() Kind { return KindCodeBlock }
func (*Rule) Kind() Kind      { return KindRule }
func (*PageBreak) Kind() Kind { return KindPageBreak }
func (*Image) Kind() Kind     { return KindImage }
func (*Table) Kind() Kind     { return KindTable }
func (*Formula) Kind() Kind   { return KindFormula }

func (*Heading) isBlock()   {}
func (*Paragraph) isBlock() {}
func (*List) isBlock()      {}
func (*CodeBlock) isBlock() {}
func (*Rule) isBlock()      {}
func (*PageBreak) isBlock() {}
func (*Image) isBlock()     {}
func (*Table) isBlock()     {}
func (*Formula) isBlock()   {}

// Text is a styled run of characters.
type Text struct {
	Value     string
	Bold      bool
	Italic    bool
	Code      bool
	Highlight bool
	Strike    bool
}

// Link is a hyperlink with its display text.
type Link struct {
	Text string
	URL  string
}

// Equation is inline math written in LaTeX.
type Equation struct {
	Expr string
}

func (Text) isInline()     {}
func (Link) isInline()     {}
func (Equation) isInline() {}

// Plain returns a paragraph holding a single unstyled run.
func Plain(s string) *Paragraph {
	return &Paragraph{Inlines: []Inline{Text{Value: s}}}
}

// PlainText flattens inline content to a string. Equations keep their LaTeX source.
func PlainText(inlines []Inline) string {
	var b strings.Builder
	for _, in := range inlines {
		switch v := in.(type) {
		case Text:
			b.WriteString(v.Value)
		case Link:
			b.WriteString(v.Text)
		case Equation:
			b.WriteString(v.Expr)
		}
	}
	return b.String()
}

// Walk calls fn for every block in document order, descending into list items
// after the item that contains them. It stops at the first error.
func Walk(blocks []Block, fn func(Block) error) error {
	for _, b := range blocks {
		if err := fn(b); err != nil {
			return err
		}
		if l, ok := b.(*List); ok {
			for _, item := range l.Items {
				if err := Walk(item.Children, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
