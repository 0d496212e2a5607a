// Package logging builds the slog loggers used by the CLI and the TUI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// FileName is the TUI log file inside the state directory.
const FileName = "parkmate.log"

// NewCommandLogger writes to stderr: text when stderr is a terminal, JSON
// when it is piped or redirected.
//
// Callers scope it with With():
//
//	logger := logging.NewCommandLogger(level).With("command", "book")
func NewCommandLogger(level slog.Level) *slog.Logger {
	return New(os.Stderr, level, term.IsTerminal(int(os.Stderr.Fd())))
}

// New returns a text logger when text is set and a JSON logger otherwise.
func New(w io.Writer, level slog.Level, text bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// OpenFile opens <dir>/parkmate.log for appending and returns a JSON logger
// on it. The TUI owns the terminal, so it cannot log to stderr. Close the
// returned closer on exit.
func OpenFile(dir string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("logging.OpenFile: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("logging.OpenFile: %w", err)
	}
	return New(f, level, false), f, nil
}
