package docxwriter

import (
	"strings"

	"github.com/alnah/go-stpdocx/internal/document"
)

const trailingPunct = ".,;:"

// withColon returns inlines whose final text ends with ":".
// Trailing periods, commas and semicolons are replaced.
func withColon(inlines []document.Inline) []document.Inline {
	return retail(inlines, func(s string) string {
		return strings.TrimRight(s, trailingPunct) + ":"
	})
}

// punctuate ends a list item with ";" or, for the last item, ".".
// Items ending in "?" or "!" keep their mark.
func punctuate(inlines []document.Inline, last bool) []document.Inline {
	mark := ";"
	if last {
		mark = "."
	}
	return retail(inlines, func(s string) string {
		if strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
			return s
		}
		return strings.TrimRight(s, trailingPunct) + mark
	})
}

// retail rewrites the tail of the last text inline. When the content ends
// with a non-text inline, fix is applied to an appended empty run.
func retail(inlines []document.Inline, fix func(string) string) []document.Inline {
	out := make([]document.Inline, len(inlines), len(inlines)+1)
	copy(out, inlines)

	if n := len(out); n > 0 {
		if t, ok := out[n-1].(document.Text); ok {
			t.Value = fix(strings.TrimRight(t.Value, " \t"))
			out[n-1] = t
			return out
		}
	}
	return append(out, document.Text{Value: fix("")})
}

// splitTerm separates "S - площадь" into symbol and description. An em
// dash wins over an en dash, which wins over a hyphen. Terms without a
// separator yield an empty description.
func splitTerm(term string) (symbol, desc string) {
	term = strings.TrimSpace(term)
	for _, prefix := range []string{"где ", "where "} {
		if len(term) > len(prefix) && strings.EqualFold(term[:len(prefix)], prefix) {
			term = strings.TrimSpace(term[len(prefix):])
			break
		}
	}

	for _, sep := range []string{"—", "–", " - ", "-"} {
		if i := strings.Index(term, sep); i > 0 {
			symbol = strings.TrimSpace(term[:i])
			desc = strings.TrimSpace(term[i+len(sep):])
			return symbol, strings.TrimRight(desc, trailingPunct)
		}
	}
	return strings.TrimRight(term, trailingPunct), ""
}
