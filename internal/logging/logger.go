// Package logging provides the leveled slog logger used by the CLI and an
// adapter that lets the simulation engine log through it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is a custom slog level below Debug for per-simulation detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing text records to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SlogAdapter exposes a *slog.Logger through the printf-style Logger
// interface of the calculation package.
type SlogAdapter struct {
	Logger *slog.Logger
}

// NewSlogAdapter wraps l. A nil logger discards everything.
func NewSlogAdapter(l *slog.Logger) *SlogAdapter {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SlogAdapter{Logger: l}
}

func (a *SlogAdapter) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !a.Logger.Enabled(ctx, level) {
		return
	}
	a.Logger.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (a *SlogAdapter) Tracef(format string, args ...any) { a.log(LevelTrace, format, args...) }
func (a *SlogAdapter) Debugf(format string, args ...any) { a.log(slog.LevelDebug, format, args...) }
func (a *SlogAdapter) Infof(format string, args ...any)  { a.log(slog.LevelInfo, format, args...) }
func (a *SlogAdapter) Warnf(format string, args ...any)  { a.log(slog.LevelWarn, format, args...) }
func (a *SlogAdapter) Errorf(format string, args ...any) { a.log(slog.LevelError, format, args...) }
