// Package logging adapts go-logger to the small interface the converter and
// the CLI log through.
package logging

import (
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Logger is the logging contract used across stpdocx.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Levels accepted by New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ValidLevels lists the accepted level names in increasing severity.
var ValidLevels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

// New returns a console logger named "stpdocx" at the given level.
// An empty level means info.
func New(level string) (Logger, error) {
	lvl, err := normalizeLevel(level)
	if err != nil {
		return nil, err
	}
	root := glog.NewLogger(glog.WithLevel(lvl), glog.WithLoggerTypeConsole())
	return &adapter{root: root, inner: root.GetLogger("stpdocx")}, nil
}

// Named returns a child logger when l is backed by go-logger, and l otherwise.
func Named(l Logger, name string) Logger {
	if a, ok := l.(*adapter); ok && name != "" {
		return &adapter{root: a.root, inner: a.root.GetLogger("stpdocx." + name)}
	}
	return l
}

type adapter struct {
	root  *glog.BaseLogger
	inner glog.Logger
}

func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

func normalizeLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return glog.Info, nil
	case LevelDebug:
		return glog.Debug, nil
	case LevelWarn, "warning":
		return glog.Warn, nil
	case LevelError:
		return glog.Error, nil
	default:
		return "", fmt.Errorf("logging: unknown level %q (must be one of %s)", level, strings.Join(ValidLevels, ", "))
	}
}

// NoOp returns a logger that discards everything.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
