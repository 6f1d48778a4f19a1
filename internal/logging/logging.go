// Package logging builds the process-wide slog logger. Once installed as the default,
// output from the standard log package is routed through it as well.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"agroprice/internal/config"
)

// ParseLevel maps a config level name to a slog.Level. Unknown names fall back to info.
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

// Setup creates the logger described by cfg: console (text) or json on stderr, plus a
// JSON file sink when cfg.File is set. The returned cleanup closes the file.
func Setup(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	level := ParseLevel(cfg.Level)

	if cfg.File == "" {
		return NewWithWriters(cfg.Format, os.Stderr, nil, level), noop, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("logging.Setup: opening log file %s: %w", cfg.File, err)
	}

	return NewWithWriters(cfg.Format, os.Stderr, file, level), file.Close, nil
}

// NewWithWriters creates a logger writing to console in the given format and, when file
// is non-nil, JSON lines to file.
func NewWithWriters(format string, console, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var consoleHandler slog.Handler
	if strings.EqualFold(format, "json") {
		consoleHandler = slog.NewJSONHandler(console, opts)
	} else {
		consoleHandler = slog.NewTextHandler(console, opts)
	}

	if file == nil {
		return slog.New(consoleHandler)
	}
	return slog.New(slogmulti.Fanout(consoleHandler, slog.NewJSONHandler(file, opts)))
}

// Install sets logger as the slog default, which also redirects the standard log package.
func Install(logger *slog.Logger) {
	slog.SetDefault(logger)
}
