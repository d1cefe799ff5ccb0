// Package logger builds the structured logger shared by the client packages.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var levelVar = new(slog.LevelVar)

// SetLevel configures the log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// Level returns the current log level
func Level() slog.Level {
	return levelVar.Level()
}

// New returns a JSON logger writing to w at the shared level
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns a debug logger appending to path when verbose is set.
// Otherwise it returns a discarding logger. The terminal is never written to
// since the TUI owns it.
func Open(path string, verbose bool) (*slog.Logger, io.Closer, error) {
	if !verbose {
		return Discard(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Discard(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Discard(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}

	SetLevel("debug")
	return New(f).With("pid", os.Getpid()), f, nil
}
