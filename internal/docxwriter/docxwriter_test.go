package docxwriter

// Notes:
// - Render output is inspected through the go-docx object model; one test
//   serializes with WriteTo and reads the archive back with docx.Parse.
// - paragraphText stands in for Paragraph.String, which dereferences the
//   unset package pointer of freshly added drawings. Drawings are skipped.

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	docx "github.com/fumiama/go-docx"

	"github.com/alnah/go-stpdocx/internal/document"
	"github.com/alnah/go-stpdocx/internal/gost"
)

func render(t *testing.T, doc *document.Document, opts ...Option) *docx.Docx {
	t.Helper()
	f, err := New(opts...).Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return f
}

func paragraphs(f *docx.Docx) []*docx.Paragraph {
	var out []*docx.Paragraph
	for _, it := range f.Document.Body.Items {
		if p, ok := it.(*docx.Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

func tables(f *docx.Docx) []*docx.Table {
	var out []*docx.Table
	for _, it := range f.Document.Body.Items {
		if tbl, ok := it.(*docx.Table); ok {
			out = append(out, tbl)
		}
	}
	return out
}

// paragraphText concatenates the text, tab and break children of p's runs.
func paragraphText(p *docx.Paragraph) string {
	var b strings.Builder
	for _, r := range runs(p) {
		for _, c := range r.Children {
			switch x := c.(type) {
			case *docx.Text:
				b.WriteString(x.Text)
			case *docx.Tab:
				b.WriteByte('\t')
			case *docx.BarterRabbet:
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// hasDrawing reports whether any run of p carries an inline picture.
func hasDrawing(p *docx.Paragraph) bool {
	for _, r := range runs(p) {
		for _, c := range r.Children {
			if d, ok := c.(*docx.Drawing); ok && d.Inline != nil {
				return true
			}
		}
	}
	return false
}

// texts returns the text of every body paragraph that is not blank. Page
// break paragraphs render as "\n" and are skipped too.
func texts(f *docx.Docx) []string {
	var out []string
	for _, p := range paragraphs(f) {
		if s := paragraphText(p); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func findParagraph(t *testing.T, f *docx.Docx, text string) *docx.Paragraph {
	t.Helper()
	for _, p := range paragraphs(f) {
		if paragraphText(p) == text {
			return p
		}
	}
	t.Fatalf("no paragraph %q in %q", text, texts(f))
	return nil
}

func runs(p *docx.Paragraph) []*docx.Run {
	var out []*docx.Run
	for _, c := range p.Children {
		if r, ok := c.(*docx.Run); ok {
			out = append(out, r)
		}
	}
	return out
}

func hasPageBreak(p *docx.Paragraph) bool {
	for _, r := range runs(p) {
		for _, c := range r.Children {
			if br, ok := c.(*docx.BarterRabbet); ok && br.Type == "page" {
				return true
			}
		}
	}
	return false
}

func justification(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Justification == nil {
		return ""
	}
	return p.Properties.Justification.Val
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestRender_PageSetup - A4 section with fixed margins
// ---------------------------------------------------------------------------

func TestRender_PageSetup(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{document.Plain("x")}})
	items := f.Document.Body.Items
	sect, ok := items[len(items)-1].(*docx.SectPr)
	if !ok {
		t.Fatalf("last body item = %T, want *docx.SectPr", items[len(items)-1])
	}
	if sect.PgSz.W != gost.PageWidth || sect.PgSz.H != gost.PageHeight {
		t.Errorf("page size = %+v", sect.PgSz)
	}
	want := docx.PgMar{
		Top: gost.MarginTop, Left: gost.MarginLeft, Bottom: gost.MarginBottom,
		Right: gost.MarginRight, Header: gost.MarginHeader, Footer: gost.MarginFooter,
	}
	if *sect.PgMar != want {
		t.Errorf("margins = %+v, want %+v", *sect.PgMar, want)
	}
}

func TestRender_NilDocument(t *testing.T) {
	t.Parallel()

	if _, err := New().Render(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

// ---------------------------------------------------------------------------
// TestRender_Headings - Page breaks, case, labels, alignment
// ---------------------------------------------------------------------------

func TestRender_Headings(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Heading{Level: 1, Text: "Введение", Label: "1"},
		&document.Heading{Level: 2, Text: "Цели", Label: "1.1"},
		&document.Heading{Level: 1, Text: "Обзор", Label: "2"},
		&document.Heading{Level: 1, Text: "Заключение", Unnumbered: true},
	}})

	got := texts(f)
	want := []string{"1 ВВЕДЕНИЕ", "1.1 Цели", "2 ОБЗОР", "ЗАКЛЮЧЕНИЕ"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("texts = %q, want %q", got, want)
	}

	breaks := 0
	for _, p := range paragraphs(f) {
		if hasPageBreak(p) {
			breaks++
		}
	}
	if breaks != 2 {
		t.Errorf("page breaks = %d, want 2 (none before the first level-1 heading)", breaks)
	}

	numbered := findParagraph(t, f, "1 ВВЕДЕНИЕ")
	if justification(numbered) != gost.JustifyLeft || numbered.Properties.Ind != nil {
		t.Errorf("numbered heading properties = %+v, want left without indent", numbered.Properties)
	}
	if rs := runs(numbered); len(rs) != 1 || rs[0].RunProperties.Bold == nil {
		t.Errorf("heading run not bold")
	}

	unnumbered := findParagraph(t, f, "ЗАКЛЮЧЕНИЕ")
	if justification(unnumbered) != gost.JustifyCenter || unnumbered.Properties.Ind != nil {
		t.Errorf("unnumbered heading properties = %+v", unnumbered.Properties)
	}
}

// layout renders each body paragraph as its text, "" for spacers and
// "<picture>" for drawings. Tables show up as "<table>".
func layout(f *docx.Docx) []string {
	var out []string
	for _, it := range f.Document.Body.Items {
		switch v := it.(type) {
		case *docx.Paragraph:
			if hasDrawing(v) {
				out = append(out, "<picture>")
				continue
			}
			out = append(out, paragraphText(v))
		case *docx.Table:
			out = append(out, "<table>")
		}
	}
	return out
}

func TestRender_Spacers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Heading{Level: 1, Text: "Обзор", Label: "1"},
		document.Plain("Текст."),
		&document.Image{Path: "a.png", Caption: "Схема", Label: "1.1"},
		&document.Table{Caption: "Данные", Label: "1.1", Rows: [][]string{{"1"}}},
		&document.Formula{Expr: "x", Label: "1.1"},
		&document.CodeBlock{Code: "x := 1"},
	}}, WithAssetDir(dir))

	want := []string{
		"1 ОБЗОР", "",
		"Текст.",
		"", "<picture>", "Рисунок 1.1 – Схема", "",
		"Таблица 1.1 – Данные", "<table>", "",
		"", "<table>", "",
		"x := 1",
	}
	if got := layout(f); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("layout =\n%q\nwant\n%q", got, want)
	}
}

func TestRender_NoDoubleBreakAfterExplicitBreak(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Heading{Level: 1, Text: "A", Label: "1"},
		&document.PageBreak{},
		&document.Heading{Level: 1, Text: "B", Label: "2"},
	}})

	breaks := 0
	for _, p := range paragraphs(f) {
		if hasPageBreak(p) {
			breaks++
		}
	}
	if breaks != 1 {
		t.Errorf("page breaks = %d, want 1", breaks)
	}
}

// ---------------------------------------------------------------------------
// TestRender_Paragraph - Body text formatting
// ---------------------------------------------------------------------------

func TestRender_Paragraph(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Paragraph{Inlines: []document.Inline{
			document.Text{Value: "plain "},
			document.Text{Value: "bold", Bold: true},
			document.Text{Value: " code", Code: true},
			document.Text{Value: " mark", Highlight: true},
			document.Text{Value: " gone", Strike: true},
			document.Link{Text: " link", URL: "https://example.com"},
			document.Equation{Expr: `\alpha`},
		}},
	}})

	p := findParagraph(t, f, "plain bold code mark gone linkα")
	if justification(p) != gost.JustifyBoth {
		t.Errorf("justification = %q", justification(p))
	}
	sp := p.Properties.Spacing
	if sp == nil || sp.Line != gost.LineSpacing || sp.LineRule != gost.LineRuleExact {
		t.Errorf("spacing = %+v", sp)
	}
	if p.Properties.Ind == nil || p.Properties.Ind.FirstLine != gost.FirstLineIndent {
		t.Errorf("indent = %+v", p.Properties.Ind)
	}

	rs := runs(p)
	if len(rs) != 7 {
		t.Fatalf("runs = %d, want 7", len(rs))
	}
	if rs[0].RunProperties.Fonts.ASCII != gost.FontMain || rs[0].RunProperties.Size.Val != "28" {
		t.Errorf("plain run props = %+v", rs[0].RunProperties)
	}
	if rs[1].RunProperties.Bold == nil {
		t.Error("bold run missing bold")
	}
	if rs[2].RunProperties.Fonts.ASCII != gost.FontCode {
		t.Errorf("code run font = %q", rs[2].RunProperties.Fonts.ASCII)
	}
	if rs[3].RunProperties.Highlight == nil || rs[3].RunProperties.Highlight.Val != "yellow" {
		t.Error("highlight run missing highlight")
	}
	if rs[4].RunProperties.Strike == nil {
		t.Error("strike run missing strike")
	}
	if rs[5].RunProperties.Underline == nil {
		t.Error("link run not underlined")
	}
}

// ---------------------------------------------------------------------------
// TestRender_Lists - Markers, punctuation, lead-in colon
// ---------------------------------------------------------------------------

func TestRender_Lists(t *testing.T) {
	t.Parallel()

	item := func(s string) document.ListItem {
		return document.ListItem{Inlines: []document.Inline{document.Text{Value: s}}}
	}
	nested := &document.List{Items: []document.ListItem{item("inner")}}

	f := render(t, &document.Document{Blocks: []document.Block{
		document.Plain("Состав работ."),
		&document.List{Ordered: true, Items: []document.ListItem{
			item("анализ."),
			{Inlines: []document.Inline{document.Text{Value: "проектирование"}}, Children: []document.Block{nested}},
			item("тестирование;"),
		}},
		document.Plain("Итоги"),
		&document.List{Items: []document.ListItem{item("готово?"), item("да")}},
	}})

	want := []string{
		"Состав работ:",
		"1 анализ;",
		"2 проектирование;",
		"– inner.",
		"3 тестирование.",
		"Итоги:",
		"– готово?",
		"– да.",
	}
	if got := texts(f); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("texts =\n%q\nwant\n%q", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestRender_CodeAndRule
// ---------------------------------------------------------------------------

func TestRender_CodeAndRule(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.CodeBlock{Language: "go", Code: "func main() {}"},
		&document.CodeBlock{Code: "plain text"},
		&document.Rule{},
	}})

	ps := paragraphs(f)
	if got := paragraphText(ps[0]); got != "func main() {}" {
		t.Errorf("code text = %q", got)
	}
	colored := false
	for _, r := range runs(ps[0]) {
		if r.RunProperties.Fonts.ASCII != gost.FontCode || r.RunProperties.Size.Val != "24" {
			t.Errorf("code run props = %+v", r.RunProperties)
		}
		if r.RunProperties.Color != nil {
			colored = true
		}
	}
	if !colored {
		t.Error("go code has no colored tokens")
	}
	if justification(ps[0]) != gost.JustifyLeft || ps[0].Properties.Ind != nil {
		t.Errorf("code paragraph properties = %+v", ps[0].Properties)
	}

	if rs := runs(ps[1]); len(rs) != 1 || rs[0].RunProperties.Color != nil {
		t.Errorf("plain code block should be a single uncolored run")
	}

	rule := findParagraph(t, f, gost.RuleText)
	if justification(rule) != gost.JustifyCenter {
		t.Errorf("rule justification = %q", justification(rule))
	}
}

// ---------------------------------------------------------------------------
// TestRender_Images - Pictures, placeholders, strict mode
// ---------------------------------------------------------------------------

func TestRender_Image(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Image{Path: "a.png", Caption: "Схема", Label: "1.1"},
	}}, WithAssetDir(dir))

	findParagraph(t, f, "Рисунок 1.1 – Схема")
	if m := f.Media("image1.png"); m == nil || len(m.Data) == 0 {
		t.Error("picture was not embedded")
	}
	pictures := 0
	for _, p := range paragraphs(f) {
		if hasDrawing(p) {
			pictures++
			if justification(p) != gost.JustifyCenter {
				t.Errorf("picture justification = %q", justification(p))
			}
		}
	}
	if pictures != 1 {
		t.Errorf("picture paragraphs = %d, want 1", pictures)
	}
}

func TestRender_ImageFromSourceDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"))

	f := render(t, &document.Document{
		Blocks: []document.Block{&document.Image{Path: "b.png", Alt: "Alt text", Label: "2.3"}},
		Meta:   document.Meta{Source: filepath.Join(dir, "report.md")},
	})
	findParagraph(t, f, "Рисунок 2.3 – Alt text")
	if m := f.Media("image1.png"); m == nil || len(m.Data) == 0 {
		t.Error("picture from the source directory was not embedded")
	}
}

func TestRender_MissingImage(t *testing.T) {
	t.Parallel()

	doc := &document.Document{Blocks: []document.Block{
		&document.Image{Path: "nope.png", Label: "0.1"},
	}}

	f := render(t, doc)
	findParagraph(t, f, "[Missing image: nope.png]")
	findParagraph(t, f, "Рисунок 0.1 – "+gost.DefaultFigureTitle)

	_, err := New(WithStrictImages(true)).Render(doc)
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("strict error = %v, want ErrImageNotFound", err)
	}
}

func TestRender_UnsupportedImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := &document.Document{Blocks: []document.Block{&document.Image{Path: path, Label: "1.1"}}}

	findParagraph(t, render(t, doc), "[Missing image: "+path+"]")
	if _, err := New(WithStrictImages(true)).Render(doc); !errors.Is(err, ErrImageUnsupported) {
		t.Errorf("strict error = %v, want ErrImageUnsupported", err)
	}
}

// ---------------------------------------------------------------------------
// TestRender_Table
// ---------------------------------------------------------------------------

func TestRender_Table(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Table{
			Header:  []string{"A", "B", "C"},
			Rows:    [][]string{{"1", "2"}, {"3", "4", "5"}},
			Caption: "Результаты",
			Label:   "1.2",
		},
	}})

	caption := findParagraph(t, f, "Таблица 1.2 – Результаты")
	if justification(caption) != gost.JustifyLeft {
		t.Errorf("caption justification = %q", justification(caption))
	}

	tbls := tables(f)
	if len(tbls) != 1 {
		t.Fatalf("tables = %d, want 1", len(tbls))
	}
	tbl := tbls[0]
	if len(tbl.TableRows) != 3 {
		t.Fatalf("rows = %d, want 3", len(tbl.TableRows))
	}
	for i, row := range tbl.TableRows {
		if len(row.TableCells) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row.TableCells))
		}
	}
	if tbl.TableProperties.TableBorders.Top.Val != "single" {
		t.Errorf("table borders = %+v", tbl.TableProperties.TableBorders.Top)
	}

	header := tbl.TableRows[0].TableCells[0].Paragraphs[0]
	if paragraphText(header) != "A" || runs(header)[0].RunProperties.Bold == nil {
		t.Errorf("header cell = %q, bold=%v", paragraphText(header), runs(header)[0].RunProperties.Bold)
	}
	body := tbl.TableRows[1].TableCells[0].Paragraphs[0]
	if runs(body)[0].RunProperties.Bold != nil {
		t.Error("body cell should not be bold")
	}
	if pad := paragraphText(tbl.TableRows[1].TableCells[2].Paragraphs[0]); pad != "" {
		t.Errorf("padded cell = %q, want empty", pad)
	}
}

func TestRender_TableDefaultCaption(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{&document.Table{Label: "0.1"}}})
	findParagraph(t, f, "Таблица 0.1 – "+gost.DefaultTableTitle)
	if len(tables(f)) != 0 {
		t.Error("empty table should not emit a grid")
	}
}

// ---------------------------------------------------------------------------
// TestRender_Formula - Borderless layout and term list
// ---------------------------------------------------------------------------

func TestRender_Formula(t *testing.T) {
	t.Parallel()

	f := render(t, &document.Document{Blocks: []document.Block{
		&document.Formula{
			Expr:  `S = \pi r^2`,
			Terms: []string{"S - площадь круга", `r — радиус`, "π"},
			Label: "1.1",
		},
	}})

	tbls := tables(f)
	if len(tbls) != 1 {
		t.Fatalf("tables = %d, want 1", len(tbls))
	}
	tbl := tbls[0]
	if v := tbl.TableProperties.TableBorders.Top.Val; v != "nil" {
		t.Errorf("formula table border = %q, want nil", v)
	}
	cells := tbl.TableRows[0].TableCells
	if got := paragraphText(cells[0].Paragraphs[0]); got != "S = π r²" {
		t.Errorf("formula cell = %q", got)
	}
	num := cells[1].Paragraphs[0]
	if paragraphText(num) != "(1.1)" || justification(num) != gost.JustifyRight {
		t.Errorf("number cell = %q (%s)", paragraphText(num), justification(num))
	}

	first := findParagraph(t, f, "где S\t– площадь круга;")
	tabs := first.Properties.Tabs
	if tabs == nil || len(tabs.Tabs) != 1 || tabs.Tabs[0].Position != gost.TermTabStop {
		t.Errorf("term tab stops = %+v", tabs)
	}
	findParagraph(t, f, "r\t– радиус;")
	findParagraph(t, f, "π.")
}

// ---------------------------------------------------------------------------
// TestWriteTo - Serialized archive reads back
// ---------------------------------------------------------------------------

func TestWriteTo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := New().WriteTo(&buf, &document.Document{Blocks: []document.Block{
		&document.Heading{Level: 1, Text: "Введение", Label: "1"},
		document.Plain("Текст отчёта."),
		&document.Table{Header: []string{"h"}, Rows: [][]string{{"v"}}, Label: "1.1"},
	}})
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	f, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("docx.Parse() error = %v", err)
	}
	got := strings.Join(texts(f), "|")
	for _, want := range []string{"1 ВВЕДЕНИЕ", "Текст отчёта.", "Таблица 1.1 – Название таблицы"} {
		if !strings.Contains(got, want) {
			t.Errorf("read-back text %q missing %q", got, want)
		}
	}
	if len(tables(f)) != 1 {
		t.Errorf("read-back tables = %d, want 1", len(tables(f)))
	}
}

// ---------------------------------------------------------------------------
// TestSplitTerm
// ---------------------------------------------------------------------------

func TestSplitTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, symbol, desc string
	}{
		{"S - площадь;", "S", "площадь"},
		{"где x — координата", "x", "координата"},
		{"v – скорость.", "v", "скорость"},
		{"x-1 - смещение", "x-1", "смещение"},
		{"k-коэффициент", "k", "коэффициент"},
		{"alone", "alone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			symbol, desc := splitTerm(tt.in)
			if symbol != tt.symbol || desc != tt.desc {
				t.Errorf("splitTerm(%q) = %q, %q; want %q, %q", tt.in, symbol, desc, tt.symbol, tt.desc)
			}
		})
	}
}
