package gost

import (
	"regexp"
	"strings"
)

// symbolReplacer maps LaTeX commands to Unicode glyphs. Longer commands are
// listed before their prefixes so \epsilon is not consumed as \e + psilon.
var symbolReplacer = strings.NewReplacer(
	`\varepsilon`, "ε",
	`\epsilon`, "ε",
	`\lambda`, "λ",
	`\alpha`, "α",
	`\beta`, "β",
	`\gamma`, "γ",
	`\delta`, "δ",
	`\Delta`, "Δ",
	`\theta`, "θ",
	`\sigma`, "σ",
	`\Sigma`, "Σ",
	`\omega`, "ω",
	`\Omega`, "Ω",
	`\infty`, "∞",
	`\times`, "×",
	`\approx`, "≈",
	`\cdot`, "·",
	`\sqrt`, "√",
	`\leq`, "≤",
	`\geq`, "≥",
	`\neq`, "≠",
	`\sum`, "∑",
	`\phi`, "φ",
	`\rho`, "ρ",
	`\tau`, "τ",
	`\eta`, "η",
	`\mu`, "μ",
	`\nu`, "ν",
	`\pi`, "π",
	`\pm`, "±",
	`\le`, "≤",
	`\ge`, "≥",
	`\,`, " ",
	`\;`, " ",
	`\left`, "",
	`\right`, "",
)

var (
	fracPattern = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	textPattern = regexp.MustCompile(`\\(?:text|mathrm|mathit)\{([^{}]*)\}`)
	supPattern  = regexp.MustCompile(`\^\{([^{}]*)\}`)
	subPattern  = regexp.MustCompile(`_\{([^{}]*)\}`)
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', 'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋',
}

// LatexToUnicode renders a LaTeX expression as plain text suitable for a DOCX
// run. It handles Greek letters, common operators, simple fractions and
// single-character or braced scripts; anything else passes through.
func LatexToUnicode(expr string) string {
	s := strings.TrimSpace(expr)
	s = textPattern.ReplaceAllString(s, "$1")
	s = fracPattern.ReplaceAllString(s, "($1)/($2)")
	s = symbolReplacer.Replace(s)
	s = supPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scripted(supPattern.FindStringSubmatch(m)[1], superscripts, "^")
	})
	s = subPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scripted(subPattern.FindStringSubmatch(m)[1], subscripts, "_")
	})
	s = singleScripts(s)
	return s
}

// scripted maps every rune of body through table. If any rune has no glyph
// the marker form is returned unchanged.
func scripted(body string, table map[rune]rune, marker string) string {
	var b strings.Builder
	for _, r := range body {
		g, ok := table[r]
		if !ok {
			return marker + "(" + body + ")"
		}
		b.WriteRune(g)
	}
	return b.String()
}

// singleScripts handles x^2 and a_1 forms.
func singleScripts(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if (r == '^' || r == '_') && i+1 < len(rs) {
			table := superscripts
			if r == '_' {
				table = subscripts
			}
			if g, ok := table[rs[i+1]]; ok {
				b.WriteRune(g)
				i++
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
