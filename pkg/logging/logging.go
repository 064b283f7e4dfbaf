package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the severity of a log entry.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel converts a --log-level value into a Level. Matching is
// case-insensitive and "warning" is accepted for "warn".
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", name)
}

// Format selects the handler that renders log entries.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a --log-format value into a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q (expected text or json)", name)
}

// Until Init is called only warnings and errors are written, to stderr.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelWarn})))
}

// Init replaces the process-wide logger. Entries below level are dropped.
func Init(format Format, level Level, output io.Writer) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	l := slog.New(handler)
	logger.Store(l)
	slog.SetDefault(l)
}

func logf(level Level, subsystem string, err error, format string, args ...interface{}) {
	l := logger.Load()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, format string, args ...interface{}) {
	logf(LevelDebug, subsystem, nil, format, args...)
}

// Info logs an informational message.
func Info(subsystem string, format string, args ...interface{}) {
	logf(LevelInfo, subsystem, nil, format, args...)
}

// Warn logs a warning.
func Warn(subsystem string, format string, args ...interface{}) {
	logf(LevelWarn, subsystem, nil, format, args...)
}

// Error logs an error together with the message.
func Error(subsystem string, err error, format string, args ...interface{}) {
	logf(LevelError, subsystem, err, format, args...)
}
