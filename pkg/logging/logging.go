// Package logging configures the process-wide diagnostic logger.
//
// Diagnostics go to a log file rather than the terminal: hx runs inside
// shell hooks, where any stray output would end up in the user's prompt.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvLevel overrides the configured log level when set
const EnvLevel = "HX_LOG"

// FileName is the default log file inside the data directory
const FileName = "hx.log"

// ParseLevel maps a level name to a slog.Level; "" means error
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "", "error":
		return slog.LevelError, nil
	default:
		return slog.LevelError, fmt.Errorf("unknown log level: %s", name)
	}
}

// Setup installs a text logger writing to path at the given level and
// returns a function closing the log file. $HX_LOG takes precedence over
// level.
func Setup(level, path string) (func() error, error) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	slog.SetDefault(New(f, lvl))
	return f.Close, nil
}

// New returns a text logger writing to w
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard silences the default logger
func Discard() {
	slog.SetDefault(New(io.Discard, slog.LevelError))
}
