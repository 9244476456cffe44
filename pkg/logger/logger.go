// Package logger configures structured logging for the progress engine.
// All components log through log/slog; this package owns handler setup
// so the binaries agree on format and level.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output format.
type Format string

const (
	// FormatJSON emits one JSON object per line. Default in production.
	FormatJSON Format = "json"

	// FormatText emits human-readable key=value lines. Default in development.
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Output is the log destination (default os.Stdout).
	Output io.Writer

	// Level is the minimum level to log (default info).
	Level slog.Level

	// Format selects JSON or text output (default JSON).
	Format Format

	// AddSource includes the source file and line in each record.
	AddSource bool

	// Service is attached to every record as the "service" attribute.
	Service string
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// ParseLevel parses a string into a slog.Level. Unknown strings map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat parses a string into a Format. Unknown strings map to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// New creates a configured *slog.Logger.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	return log
}

// Setup creates a logger and installs it as the slog default.
func Setup(opts Options) *slog.Logger {
	log := New(opts)
	slog.SetDefault(log)
	return log
}
