// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package log provides the structured, level-gated logger used across the
// LOS core. It layers a terminal-aware handler on top of the standard
// library's slog, the way go-ethereum's log package wraps slog with
// colorized, human-readable output for TTYs. There is no JSON handler.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level mirrors slog.Level with the names go-ethereum operators expect.
type Level = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.Level(12)
)

var (
	root   *Logger
	rootMu sync.Mutex
)

func init() {
	root = New(NewTerminalHandler(os.Stderr, LevelInfo))
}

// Logger is a thin wrapper around slog.Logger that adds the Crit level and
// keeps the package-level convenience functions (Info, Warn, ...) working
// against whatever handler was installed with SetDefault.
type Logger struct {
	inner *slog.Logger
}

func New(h slog.Handler) *Logger { return &Logger{inner: slog.New(h)} }

func (l *Logger) With(ctx ...any) *Logger { return &Logger{inner: l.inner.With(ctx...)} }

func (l *Logger) log(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *Logger) Trace(msg string, ctx ...any) { l.log(LevelTrace, msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...any) { l.log(LevelDebug, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...any)  { l.log(LevelInfo, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...any)  { l.log(LevelWarn, msg, ctx) }
func (l *Logger) Error(msg string, ctx ...any) { l.log(LevelError, msg, ctx) }

// Crit logs at the highest level and terminates the process. Reserved for
// the fatal conditions enumerated in spec §7 (chain-ID mismatch after
// startup, storage corruption, supply invariant violation).
func (l *Logger) Crit(msg string, ctx ...any) {
	l.log(LevelCrit, msg, ctx)
	os.Exit(1)
}

// SetDefault installs l as the package-level logger used by the free
// functions below.
func SetDefault(l *Logger) {
	rootMu.Lock()
	defer rootMu.Unlock()
	root = l
}

func Trace(msg string, ctx ...any) { rootMu.Lock(); r := root; rootMu.Unlock(); r.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { rootMu.Lock(); r := root; rootMu.Unlock(); r.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { rootMu.Lock(); r := root; rootMu.Unlock(); r.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { rootMu.Lock(); r := root; rootMu.Unlock(); r.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { rootMu.Lock(); r := root; rootMu.Unlock(); r.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { rootMu.Lock(); r := root; rootMu.Unlock(); r.Crit(msg, ctx...) }

// terminalHandler renders key/value records the way go-ethereum's console
// logger does: "LVL [timestamp] msg  key=value key=value", colorized when
// writing to a TTY and plain otherwise.
type terminalHandler struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel slog.Level
	color    bool
}

// NewTerminalHandler returns a slog.Handler suitable for interactive use.
func NewTerminalHandler(w io.Writer, minLevel slog.Level) slog.Handler {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return &terminalHandler{out: w, minLevel: minLevel, color: useColor}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	lvl := levelLabel(r.Level)
	if h.color {
		lvl = color.New(levelColor(r.Level)).Sprint(lvl)
	}

	attrs := make([]string, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
		return true
	})
	sort.Strings(attrs)

	line := fmt.Sprintf("%s[%s] %s", lvl, r.Time.Format(time.RFC3339), r.Message)
	for _, a := range attrs {
		line += " " + a
	}
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *terminalHandler) WithGroup(name string) slog.Handler      { return h }

func levelLabel(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return "TRACE "
	case l < LevelInfo:
		return "DEBUG "
	case l < LevelWarn:
		return "INFO  "
	case l < LevelError:
		return "WARN  "
	case l < LevelCrit:
		return "ERROR "
	default:
		return "CRIT  "
	}
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l < LevelInfo:
		return color.FgHiBlack
	case l < LevelWarn:
		return color.FgBlue
	case l < LevelError:
		return color.FgYellow
	default:
		return color.FgRed
	}
}
