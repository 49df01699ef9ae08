// Package logger builds the process-wide slog logger from configuration.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lllypuk/eventboard/internal/config"
)

// Setup creates the structured logger for cfg, writes to stdout and installs it as
// the slog default.
func Setup(cfg config.LogConfig, service string) *slog.Logger {
	logger := New(os.Stdout, cfg).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default: // "json" or any other value defaults to JSON
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level. Unknown levels are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
