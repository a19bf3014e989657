package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-stpdocx"
	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/logging"
)

// testEnv returns an Environment writing to buffers and reading variables
// from vars instead of the process environment.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Stdout: stdout,
		Stderr: stderr,
		LookupEnv: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Config: config.DefaultConfig(),
		Logger: logging.NoOp(),
	}
	return env, stdout, stderr
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// recordLogger keeps messages for assertions.
type recordLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+" "+msg)
}

func (l *recordLogger) Debug(msg string, _ ...any) { l.record("DEBUG", msg) }
func (l *recordLogger) Info(msg string, _ ...any)  { l.record("INFO", msg) }
func (l *recordLogger) Warn(msg string, _ ...any)  { l.record("WARN", msg) }
func (l *recordLogger) Error(msg string, _ ...any) { l.record("ERROR", msg) }

func (l *recordLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// mockConverter records calls and returns canned results.
type mockConverter struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
	delay time.Duration
}

func (m *mockConverter) ConvertFile(ctx context.Context, in, out string) (*stpdocx.Result, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.calls = append(m.calls, in)
	err := m.errs[in]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &stpdocx.Result{Stats: stpdocx.Stats{Headings: 1}}, nil
}

func (m *mockConverter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
