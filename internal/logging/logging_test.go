package logging

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestNew - Level parsing
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{"INFO", false},
		{" warning ", false},
		{"error", false},
		{"loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			l, err := New(tt.level)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "unknown level") {
					t.Fatalf("New(%q) error = %v, want unknown level", tt.level, err)
				}
				return
			}
			if err != nil || l == nil {
				t.Fatalf("New(%q) = %v, %v", tt.level, l, err)
			}
		})
	}
}

func TestNamed(t *testing.T) {
	t.Parallel()

	l, err := New("error")
	if err != nil {
		t.Fatal(err)
	}
	child := Named(l, "writer")
	if child == nil || child == l {
		t.Fatalf("Named() = %v, want a distinct child logger", child)
	}
	child.Debug("suppressed at error level")

	n := NoOp()
	if Named(n, "x") != n {
		t.Error("Named() on NoOp should return the same logger")
	}
}

func TestNoOp(t *testing.T) {
	t.Parallel()

	l := NoOp()
	l.Debug("a", "k", 1)
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}
