// Package logger provides structured logging for statfold.
//
// The logger supports text and JSON output, configurable levels, and
// context fields. Library packages accept a Logger in their Config and
// default to Nop() when none is given, so tests stay quiet and callers
// opt in to output.
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:  "info",
//	    Output: "stderr",
//	    Format: "text",
//	})
//	log.Info("aggregation finished", "groups", 12, "records", 40000)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with levels and fields.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a new logger with additional context fields.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Output is the destination (stdout, stderr, or a file path).
	Output string

	// Format is the output format (text, json).
	Format string
}

// logger implements the Logger interface using slog.
type logger struct {
	slogger *slog.Logger
}

// New creates a logger from the given configuration.
//
// Invalid configuration falls back to defaults (info level, stderr,
// text format) rather than failing.
func New(cfg Config) Logger {
	level := parseLevel(cfg.Level)

	writer, err := getWriter(cfg.Output)
	if err != nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &logger{
		slogger: slog.New(handler),
	}
}

// NewWithWriter creates a text logger that writes to w.
//
// Intended for tests that assert on log output.
func NewWithWriter(w io.Writer, level string) Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &logger{
		slogger: slog.New(handler),
	}
}

// Debug implements Logger.Debug.
func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

// Info implements Logger.Info.
func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

// Warn implements Logger.Warn.
func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

// Error implements Logger.Error.
func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

// With implements Logger.With.
func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{
		slogger: l.slogger.With(keysAndValues...),
	}
}

// nopLogger discards everything.
type nopLogger struct{}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) With(...interface{}) Logger   { return nopLogger{} }

// parseLevel converts a string log level to slog.Level.
// Unrecognized levels default to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getWriter returns an io.Writer for the given output destination.
//
// Supported destinations:
//   - "stdout": standard output
//   - "stderr" or empty: standard error
//   - anything else: opened as a file path for appending
func getWriter(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return f, nil
	}
}
