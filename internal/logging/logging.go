package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug|info|warn|error to a slog level. Unknown values fall back to info.
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

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError)
}

// FromEnv builds the logger for interactive commands.
//
// The TUI owns the terminal, so logs only go to the file named by TASKFLOW_LOG
// (appended). Without it, logs are dropped. The returned close func is always non-nil.
func FromEnv() (*slog.Logger, func() error) {
	level := ParseLevel(os.Getenv("TASKFLOW_LOG_LEVEL"))
	path := strings.TrimSpace(os.Getenv("TASKFLOW_LOG"))
	if path == "" {
		return Discard(), func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Discard(), func() error { return nil }
	}
	return New(f, level), f.Close
}

// Stderr builds the logger for long-running server commands.
func Stderr() *slog.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("TASKFLOW_LOG_LEVEL")))
}
