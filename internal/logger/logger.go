// Package logger provides slog helpers for the app.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/handsomefox/moodreel/internal/env"
)

// New returns a JSON logger in production and a text logger everywhere else.
func New(level slog.Level, e env.Environment) *slog.Logger {
	return NewWithWriter(os.Stderr, level, e)
}

func NewWithWriter(w io.Writer, level slog.Level, e env.Environment) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}
	if e.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is a logger for tests and optional components.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "nil")
	}
	return slog.String("err", err.Error())
}
