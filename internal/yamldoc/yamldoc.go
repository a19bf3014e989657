// Package yamldoc loads the constrained YAML document schema into the block
// tree. Root keys are processed in document order; a body sequence, when
// present, describes the whole document.
package yamldoc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/alnah/go-stpdocx/internal/document"
	"github.com/alnah/go-stpdocx/internal/yamlutil"
)

// Sentinel errors.
var (
	ErrSyntax = errors.New("invalid YAML")
	ErrSchema = errors.New("YAML document does not match the schema")
)

var (
	rootKeys = []any{
		"title", "heading", "subtitle", "context", "extra_paragraph",
		"ordered_list", "numbered_list", "bullet_list", "unordered_list",
		"image", "image_caption", "image_alt", "formula", "table",
		"code_block", "page_break", "body",
	}
	bodyKeys = []any{
		"heading", "level", "paragraph",
		"ordered_list", "numbered_list", "bullet_list", "unordered_list",
		"image", "caption", "alt", "formula", "terms", "table",
		"code_block", "language", "page_break",
	}
	imageKeys   = []any{"path", "src", "caption", "alt"}
	formulaKeys = []any{"expression", "latex", "value", "terms", "number"}
	tableKeys   = []any{"header", "rows", "caption"}
	codeKeys    = []any{"code", "language"}
)

// IsRootKey reports whether key may appear at the top level of a document.
func IsRootKey(key string) bool {
	return slices.Contains(rootKeys, any(key))
}

// Loader decodes YAML documents.
type Loader struct{}

// NewLoader returns a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses source into a document. Unknown keys and entries missing a
// required key are reported together as one validation error wrapped in
// ErrSchema.
func (l *Loader) Load(ctx context.Context, source []byte) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := yamlutil.UnmarshalOrdered(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	b := &builder{errs: validation.Errors{}}
	b.checkKeys(root, rootKeys, "")

	if body, ok := lookup(root, "body"); ok && body != nil {
		seq, isSeq := body.([]any)
		if !isSeq {
			b.fail("body", "must be a sequence")
		} else {
			b.body(seq)
		}
	} else {
		b.root(root)
	}

	doc := &document.Document{}
	if t, ok := lookup(root, "title"); ok {
		doc.Meta.Title = strings.TrimSpace(b.text(t, "title"))
	}

	if len(b.errs) > 0 {
		verr := goerrors.FromOzzoValidation(b.errs, "invalid YAML document").WithTextCode("SCHEMA")
		return nil, fmt.Errorf("%w: %w", ErrSchema, verr)
	}

	doc.Blocks = b.blocks
	return doc, nil
}

type builder struct {
	blocks []document.Block
	errs   validation.Errors
}

func (b *builder) add(blocks ...document.Block) {
	b.blocks = append(b.blocks, blocks...)
}

func (b *builder) fail(path, msg string) {
	b.errs[path] = validation.NewError("validation_schema", msg)
}

func (b *builder) checkKeys(m yamlutil.MapSlice, allowed []any, path string) {
	for _, item := range m {
		key := str(item.Key)
		if err := validation.Validate(key, validation.In(allowed...).Error("unknown key")); err != nil {
			b.errs[join(path, key)] = err
		}
	}
}

func (b *builder) root(root yamlutil.MapSlice) {
	caption := b.lookupText(root, "image_caption", "")
	alt := b.lookupText(root, "image_alt", "")

	for _, item := range root {
		key, v := str(item.Key), item.Value
		switch key {
		case "title", "heading":
			b.heading(v, key, 1)
		case "subtitle":
			b.heading(v, key, 2)
		case "context", "extra_paragraph":
			b.paragraphs(b.text(v, key))
		case "ordered_list", "numbered_list":
			b.list(v, key, true)
		case "bullet_list", "unordered_list":
			b.list(v, key, false)
		case "image":
			b.image(v, key, caption, alt)
		case "formula":
			b.formula(v, key, nil)
		case "table":
			b.table(v, key)
		case "code_block":
			b.code(v, key, "")
		case "page_break":
			if truthy(v) {
				b.add(&document.PageBreak{})
			}
		}
	}
}

func (b *builder) body(seq []any) {
	for i, entry := range seq {
		path := "body[" + strconv.Itoa(i) + "]"
		switch e := entry.(type) {
		case nil:
		case yamlutil.MapSlice:
			b.checkKeys(e, bodyKeys, path)
			b.entry(e, path)
		case []any:
			b.fail(path, "must be a string or a mapping")
		default:
			if s := strings.TrimSpace(str(e)); s != "" {
				b.add(document.Plain(s))
			}
		}
	}
}

// entry handles one body mapping. The first recognised block key wins.
func (b *builder) entry(e yamlutil.MapSlice, path string) {
	if v, ok := lookup(e, "heading"); ok {
		level := 1
		if lv, ok := lookup(e, "level"); ok {
			n, err := strconv.Atoi(str(lv))
			if err != nil || n < 1 {
				b.fail(join(path, "level"), "must be a positive integer")
				return
			}
			level = n
		}
		b.heading(v, join(path, "heading"), level)
		return
	}
	if v, ok := lookup(e, "paragraph"); ok {
		b.paragraphs(b.text(v, join(path, "paragraph")))
		return
	}
	for _, k := range []string{"ordered_list", "numbered_list"} {
		if v, ok := lookup(e, k); ok {
			b.list(v, join(path, k), true)
			return
		}
	}
	for _, k := range []string{"bullet_list", "unordered_list"} {
		if v, ok := lookup(e, k); ok {
			b.list(v, join(path, k), false)
			return
		}
	}
	if v, ok := lookup(e, "image"); ok {
		b.image(v, join(path, "image"), b.lookupText(e, "caption", path), b.lookupText(e, "alt", path))
		return
	}
	if v, ok := lookup(e, "formula"); ok {
		var terms []string
		if t, ok := lookup(e, "terms"); ok {
			terms = b.textList(t, join(path, "terms"))
		}
		b.formula(v, join(path, "formula"), terms)
		return
	}
	if v, ok := lookup(e, "table"); ok {
		b.table(v, join(path, "table"))
		return
	}
	if v, ok := lookup(e, "code_block"); ok {
		b.code(v, join(path, "code_block"), b.lookupText(e, "language", path))
		return
	}
	if v, ok := lookup(e, "page_break"); ok {
		if truthy(v) {
			b.add(&document.PageBreak{})
		}
		return
	}
	b.fail(path, "has no block key")
}

func (b *builder) heading(v any, path string, level int) {
	if s := strings.TrimSpace(b.text(v, path)); s != "" {
		b.add(&document.Heading{Level: level, Text: s})
	}
}

// paragraphs splits text on blank lines.
func (b *builder) paragraphs(text string) {
	for _, part := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(part); s != "" {
			b.add(document.Plain(s))
		}
	}
}

func (b *builder) list(v any, path string, ordered bool) {
	items := b.textList(v, path)
	if len(items) == 0 {
		return
	}
	l := &document.List{Ordered: ordered}
	for _, it := range items {
		l.Items = append(l.Items, document.ListItem{Inlines: []document.Inline{document.Text{Value: it}}})
	}
	b.add(l)
}

func (b *builder) image(v any, path, caption, alt string) {
	switch x := v.(type) {
	case nil:
	case yamlutil.MapSlice:
		b.checkKeys(x, imageKeys, path)
		src := b.firstText(x, path, "path", "src")
		if err := validation.Validate(src, validation.Required.Error("requires path or src")); err != nil {
			b.errs[path] = err
			return
		}
		b.add(&document.Image{Path: src, Caption: b.lookupText(x, "caption", path), Alt: b.lookupText(x, "alt", path)})
	default:
		if src := strings.TrimSpace(b.text(x, path)); src != "" {
			b.add(&document.Image{Path: src, Caption: caption, Alt: alt})
		}
	}
}

func (b *builder) formula(v any, path string, terms []string) {
	switch x := v.(type) {
	case nil:
	case yamlutil.MapSlice:
		b.checkKeys(x, formulaKeys, path)
		expr := b.firstText(x, path, "expression", "latex", "value")
		if err := validation.Validate(expr, validation.Required.Error("requires expression, latex or value")); err != nil {
			b.errs[path] = err
			return
		}
		if t, ok := lookup(x, "terms"); ok {
			terms = b.textList(t, join(path, "terms"))
		}
		b.add(&document.Formula{Expr: expr, Terms: terms, Number: b.lookupText(x, "number", path)})
	default:
		if expr := strings.TrimSpace(b.text(x, path)); expr != "" {
			b.add(&document.Formula{Expr: expr, Terms: terms})
		}
	}
}

func (b *builder) table(v any, path string) {
	if v == nil {
		return
	}
	x, ok := v.(yamlutil.MapSlice)
	if !ok {
		b.fail(path, "must be a mapping with header, rows and caption")
		return
	}
	b.checkKeys(x, tableKeys, path)

	t := &document.Table{Caption: b.lookupText(x, "caption", path)}
	if h, ok := lookup(x, "header"); ok {
		t.Header = b.textList(h, join(path, "header"))
	}
	if r, ok := lookup(x, "rows"); ok {
		rows, isSeq := r.([]any)
		if !isSeq && r != nil {
			b.fail(join(path, "rows"), "must be a sequence of rows")
			return
		}
		for i, row := range rows {
			t.Rows = append(t.Rows, b.textList(row, join(path, "rows")+"["+strconv.Itoa(i)+"]"))
		}
	}
	b.add(t)
}

func (b *builder) code(v any, path, lang string) {
	switch x := v.(type) {
	case nil:
	case yamlutil.MapSlice:
		b.checkKeys(x, codeKeys, path)
		if l := b.lookupText(x, "language", path); l != "" {
			lang = l
		}
		if c := b.lookupText(x, "code", path); c != "" {
			b.add(&document.CodeBlock{Language: lang, Code: strings.TrimRight(c, "\n")})
		}
	default:
		if c := b.text(x, path); c != "" {
			b.add(&document.CodeBlock{Language: lang, Code: strings.TrimRight(c, "\n")})
		}
	}
}

func lookup(m yamlutil.MapSlice, key string) (any, bool) {
	for _, item := range m {
		if str(item.Key) == key {
			return item.Value, true
		}
	}
	return nil, false
}

// lookupText returns the trimmed scalar under key, reporting a non-scalar
// value at path.key.
func (b *builder) lookupText(m yamlutil.MapSlice, key, path string) string {
	v, _ := lookup(m, key)
	return strings.TrimSpace(b.text(v, join(path, key)))
}

func (b *builder) firstText(m yamlutil.MapSlice, path string, keys ...string) string {
	for _, k := range keys {
		if s := b.lookupText(m, k, path); s != "" {
			return s
		}
	}
	return ""
}

// text returns v as a string when it is a scalar. A mapping or sequence is
// reported at path and yields "".
func (b *builder) text(v any, path string) string {
	if err := validation.By(scalar).Validate(v); err != nil {
		b.errs[path] = err
		return ""
	}
	return str(v)
}

// textList accepts a sequence of scalars or a single scalar.
func (b *builder) textList(v any, path string) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(x))
		for i, it := range x {
			out = append(out, strings.TrimSpace(b.text(it, path+"["+strconv.Itoa(i)+"]")))
		}
		return out
	default:
		if s := strings.TrimSpace(b.text(x, path)); s != "" {
			return []string{s}
		}
		return nil
	}
}

func scalar(value any) error {
	switch value.(type) {
	case yamlutil.MapSlice, []any, map[string]any, map[any]any:
		return validation.NewError("validation_scalar", "must be a scalar, not a mapping or sequence")
	}
	return nil
}

// str formats a scalar. Callers check the value with text first.
func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
