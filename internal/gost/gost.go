// Package gost holds the fixed layout constants of the СТП 01–2024 thesis
// standard and the block-to-style table the emitter reads from.
package gost

import (
	"strings"

	"github.com/alnah/go-stpdocx/internal/document"
)

// Page geometry in twips (1/1440 inch). A4 portrait.
const (
	PageWidth  = 11906
	PageHeight = 16838

	MarginLeft   = 1701 // 30 mm
	MarginRight  = 850  // 15 mm
	MarginTop    = 1134 // 20 mm
	MarginBottom = 1134 // 20 mm
	MarginHeader = 709
	MarginFooter = 709

	// TextWidth is the usable width between the side margins.
	TextWidth = PageWidth - MarginLeft - MarginRight
)

// Typography.
const (
	FontMain = "Times New Roman"
	FontCode = "Courier New"

	// SizeMain is 14 pt in the half-point units DOCX uses.
	SizeMain = 28
	SizeCode = 24

	LineSpacing     = 360 // 18 pt exact
	LineRuleExact   = "exact"
	FirstLineIndent = 709 // 1.25 cm
	TermTabStop     = 1701
)

// Caption and placeholder wording.
const (
	FigurePrefix       = "Рисунок"
	TablePrefix        = "Таблица"
	CaptionDash        = "–"
	DefaultFigureTitle = "Описание рисунка"
	DefaultTableTitle  = "Название таблицы"
	TermsLead          = "где"
	BulletMarker       = "–"
	RuleText           = "--------------------"
)

// Justification values understood by go-docx.
const (
	JustifyLeft   = "start"
	JustifyCenter = "center"
	JustifyRight  = "end"
	JustifyBoth   = "both"
)

// StyleRule is the paragraph and run formatting applied to one block kind.
type StyleRule struct {
	Font           string
	SizeHalfPoints int
	Bold           bool
	Justify        string
	FirstLine      int // twips, 0 = no indent
	Line           int // twips
	LineRule       string
	SpacerBefore   bool // emit an empty paragraph before the block
	SpacerAfter    bool
}

// Rules maps every block kind to its formatting.
var Rules = map[document.Kind]StyleRule{
	document.KindHeading: {
		Font: FontMain, SizeHalfPoints: SizeMain, Bold: true,
		Justify: JustifyLeft,
		Line: LineSpacing, LineRule: LineRuleExact, SpacerAfter: true,
	},
	document.KindParagraph: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyBoth, FirstLine: FirstLineIndent,
		Line: LineSpacing, LineRule: LineRuleExact,
	},
	document.KindList: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyBoth, FirstLine: FirstLineIndent,
		Line: LineSpacing, LineRule: LineRuleExact,
	},
	document.KindCodeBlock: {
		Font: FontCode, SizeHalfPoints: SizeCode,
		Justify: JustifyLeft,
		Line: LineSpacing, LineRule: LineRuleExact,
	},
	document.KindRule: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyCenter,
		Line: LineSpacing, LineRule: LineRuleExact,
	},
	document.KindPageBreak: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyLeft,
	},
	document.KindImage: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyCenter,
		Line: LineSpacing, LineRule: LineRuleExact,
		SpacerBefore: true, SpacerAfter: true,
	},
	document.KindTable: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyLeft,
		Line: LineSpacing, LineRule: LineRuleExact,
		SpacerAfter: true,
	},
	document.KindFormula: {
		Font: FontMain, SizeHalfPoints: SizeMain,
		Justify: JustifyRight,
		Line: LineSpacing, LineRule: LineRuleExact,
		SpacerBefore: true, SpacerAfter: true,
	},
}

// RuleFor returns the style for k and whether k is known.
func RuleFor(k document.Kind) (StyleRule, bool) {
	r, ok := Rules[k]
	return r, ok
}

// FigureCaption formats "Рисунок m.n – title".
func FigureCaption(label, title string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultFigureTitle
	}
	return FigurePrefix + " " + label + " " + CaptionDash + " " + title
}

// TableCaption formats "Таблица m.n – title".
func TableCaption(label, title string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTableTitle
	}
	return TablePrefix + " " + label + " " + CaptionDash + " " + title
}

// FormulaNumber formats the right-hand "(m.n)" tag.
func FormulaNumber(label string) string {
	return "(" + label + ")"
}
