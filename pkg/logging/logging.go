// Package logging configures structured logging for Finova binaries.
//
// Usage:
//
//	logger := logging.Setup()                // from LOG_LEVEL / LOG_FORMAT
//	logging.SetupWithOptions(logging.Options{Level: slog.LevelDebug})
//
// Environment variables:
//
//	LOG_LEVEL:  debug, info, warn, error (default: info)
//	LOG_FORMAT: text (colored, default) or json
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures the default logger.
type Options struct {
	Level slog.Level
	// JSON selects machine-readable output instead of colored text.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Setup configures logging from LOG_LEVEL and LOG_FORMAT and returns the logger.
func Setup() *slog.Logger {
	return SetupWithOptions(Options{
		Level: ParseLevel(os.Getenv("LOG_LEVEL")),
		JSON:  strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
	})
}

// SetupWithOptions installs a logger built from opts as the slog default.
func SetupWithOptions(opts Options) *slog.Logger {
	logger := slog.New(NewHandler(opts))
	slog.SetDefault(logger)
	return logger
}

// NewHandler returns a tint handler, or a JSON handler when opts.JSON is set.
func NewHandler(opts Options) slog.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.JSON {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		AddSource:  opts.Level <= slog.LevelDebug,
	})
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
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
