// Package numbering resolves section, figure, table and formula labels.
//
// Labels are computed in a single pass over the block tree using an explicit
// State value. A State belongs to exactly one conversion.
package numbering

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-stpdocx/internal/document"
)

// Section context policies.
const (
	// PolicySectionZero labels entities before the first top-level heading 0.n.
	PolicySectionZero = "section-zero"
	// PolicyStrict rejects entities that have no enclosing top-level section.
	PolicyStrict = "strict"
)

// maxLevel is the deepest heading level tracked.
const maxLevel = 6

// Sentinel errors.
var (
	ErrMissingSectionContext = errors.New("numbered entity has no enclosing section")
	ErrInvalidPolicy         = errors.New("invalid section policy")
)

var (
	rawNumberPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.+)$`)
	unnumberedPattern = regexp.MustCompile(`\s*\{(?:-|\.unnumbered)\}\s*$`)
)

// Options configures Annotate.
type Options struct {
	Policy     string   // empty = PolicySectionZero
	Unnumbered []string // heading titles that never receive a number
}

// ValidatePolicy reports whether p names a known policy. Empty is accepted.
func ValidatePolicy(p string) error {
	switch strings.ToLower(p) {
	case "", PolicySectionZero, PolicyStrict:
		return nil
	}
	return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidPolicy, p, PolicySectionZero, PolicyStrict)
}

// State holds the counters for one conversion.
type State struct {
	headings       [maxLevel]int
	section        int
	sectionKnown   bool
	figures        map[int]int
	tables         map[int]int
	formulas       map[int]int
	strict         bool
	unnumbered     map[string]bool
	entitiesBefore int // numbered entities seen so far, used in error positions
}

// NewState returns counters ready for a fresh document.
func NewState(opts Options) (*State, error) {
	if err := ValidatePolicy(opts.Policy); err != nil {
		return nil, err
	}
	s := &State{
		figures:    make(map[int]int),
		tables:     make(map[int]int),
		formulas:   make(map[int]int),
		strict:     strings.EqualFold(opts.Policy, PolicyStrict),
		unnumbered: make(map[string]bool, len(opts.Unnumbered)),
	}
	for _, title := range opts.Unnumbered {
		s.unnumbered[normalizeTitle(title)] = true
	}
	return s, nil
}

// Annotate writes resolved labels onto every heading, image, table and
// formula of doc, in document order.
func Annotate(doc *document.Document, opts Options) error {
	s, err := NewState(opts)
	if err != nil {
		return err
	}
	return document.Walk(doc.Blocks, s.Visit)
}

// Visit updates the counters for b and stores its label.
func (s *State) Visit(b document.Block) error {
	switch v := b.(type) {
	case *document.Heading:
		return s.heading(v)
	case *document.Image:
		label, err := s.next(s.figures, document.KindImage)
		if err != nil {
			return err
		}
		v.Label = label
	case *document.Table:
		label, err := s.next(s.tables, document.KindTable)
		if err != nil {
			return err
		}
		v.Label = label
	case *document.Formula:
		if v.Number != "" {
			v.Label = v.Number
			return nil
		}
		label, err := s.next(s.formulas, document.KindFormula)
		if err != nil {
			return err
		}
		v.Label = label
	case *document.Paragraph, *document.List, *document.CodeBlock, *document.Rule, *document.PageBreak:
		// not numbered
	default:
		return fmt.Errorf("numbering: unknown block %T", b)
	}
	return nil
}

// Section returns the current top-level section and whether one has started.
func (s *State) Section() (int, bool) {
	return s.section, s.sectionKnown
}

func (s *State) heading(h *document.Heading) error {
	h.Text = unnumberedPattern.ReplaceAllStringFunc(h.Text, func(string) string {
		h.Unnumbered = true
		return ""
	})
	if h.RawNumber == "" {
		if m := rawNumberPattern.FindStringSubmatch(h.Text); m != nil {
			h.RawNumber, h.Text = m[1], m[2]
		}
	}
	if s.unnumbered[normalizeTitle(h.Text)] {
		h.Unnumbered = true
	}
	if h.Unnumbered {
		h.Label = ""
		return nil
	}

	level := clampLevel(h.Level)
	if h.RawNumber != "" {
		s.sync(h.RawNumber)
		h.Label = h.RawNumber
		return nil
	}

	if level > 1 && !s.sectionKnown {
		if s.strict {
			return fmt.Errorf("%w: level %d heading %q precedes any top-level heading",
				ErrMissingSectionContext, h.Level, h.Text)
		}
	}

	s.headings[level-1]++
	for i := level; i < maxLevel; i++ {
		s.headings[i] = 0
	}
	if level == 1 {
		s.section = s.headings[0]
		s.sectionKnown = true
	}

	parts := make([]string, level)
	for i := 0; i < level; i++ {
		parts[i] = strconv.Itoa(s.headings[i])
	}
	h.Label = strings.Join(parts, ".")
	return nil
}

// sync aligns the counters with a number typed by the author.
func (s *State) sync(raw string) {
	parts := strings.Split(raw, ".")
	for i := 0; i < maxLevel; i++ {
		s.headings[i] = 0
		if i < len(parts) {
			n, err := strconv.Atoi(parts[i])
			if err == nil {
				s.headings[i] = n
			}
		}
	}
	s.section = s.headings[0]
	s.sectionKnown = true
}

func (s *State) next(counters map[int]int, kind document.Kind) (string, error) {
	s.entitiesBefore++
	if !s.sectionKnown && s.strict {
		return "", fmt.Errorf("%w: %s #%d appears before any top-level heading",
			ErrMissingSectionContext, kind, s.entitiesBefore)
	}
	counters[s.section]++
	return strconv.Itoa(s.section) + "." + strconv.Itoa(counters[s.section]), nil
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
