// Package logger provides the process-wide structured logger.
//
// It is a thin wrapper around log/slog with a level, format and output
// configured once at startup. Components log through the package-level
// helpers so they do not carry a logger dependency around.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to output: DEBUG, INFO, WARN or ERROR.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is either text or json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

var (
	mu      sync.RWMutex
	slogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
)

// Init configures the package logger. It is called once from the composition
// root; calling it again reconfigures the logger (used by tests).
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %s: %w", cfg.Output, err)
		}
		out = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	mu.Lock()
	slogger = slog.New(handler)
	mu.Unlock()
	return nil
}

// InitWithWriter configures the logger to write to w. Intended for tests.
func InitWithWriter(w io.Writer, level string) {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	mu.Lock()
	slogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	mu.Unlock()
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with key-value attributes.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs at info level with key-value attributes.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs at warn level with key-value attributes.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs at error level with key-value attributes.
func Error(msg string, args ...any) { current().Error(msg, args...) }

// DebugCtx logs at debug level with context.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	current().DebugContext(ctx, msg, args...)
}

// InfoCtx logs at info level with context.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, args...)
}

// WarnCtx logs at warn level with context.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	current().WarnContext(ctx, msg, args...)
}

// ErrorCtx logs at error level with context.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, args...)
}

// With returns a logger with preset attributes, for components that log the
// same keys on every line (for example a session's id and username).
func With(args ...any) *slog.Logger {
	return current().With(args...)
}
