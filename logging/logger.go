// Package logging provides structured logging for the kernel executive.
//
// This package uses Go's standard library log/slog for structured, leveled
// logging. It supports both text and JSON output formats, and integrates
// with context.Context for request-scoped logging. Kernel.log (kernel.go)
// appends directly to the bounded message ring (ring.go) for every
// syscall it serializes under k.mu. The package-level Info/Warn/Error/
// Debug helpers below are for the handful of call sites that run outside
// the kernel lock entirely — hooks.Registry.Run and process.DPCQueue's
// panic recovery — and have no *Kernel to log through; SetActiveRing
// lets Kernel.New point those helpers at the same ring, with a severity
// mapping onto the dmesg Level vocabulary, so a hook failure or a
// panicking DPC callback still shows up in dmesg_read instead of only
// ever reaching stderr.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"kexec-go/clock"
)

// ctxKey is the context key for the logger.
type ctxKey struct{}

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
	// loggerMu protects defaultLogger.
	loggerMu sync.RWMutex

	// ringMu protects activeRing/activeClock.
	ringMu      sync.RWMutex
	activeRing  *Ring
	activeClock clock.Source
)

func init() {
	// Initialize with a default logger (text to stderr, info level)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetActiveRing points the package-level Info/Warn/Error/Debug helpers at
// ring, timestamping mirrored entries from clk. Kernel.New calls this once
// per kernel instance; passing a nil ring disables mirroring again (tests
// that construct loggers without a kernel don't need it).
func SetActiveRing(ring *Ring, clk clock.Source) {
	ringMu.Lock()
	defer ringMu.Unlock()
	activeRing = ring
	activeClock = clk
}

// mirrorToRing appends msg to the active ring, if one is set, under pid 0
// (these helpers have no calling process to attribute the line to).
func mirrorToRing(level Level, msg string) {
	ringMu.RLock()
	ring, clk := activeRing, activeClock
	ringMu.RUnlock()
	if ring == nil || clk == nil {
		return
	}
	ring.Log(clk.Now(), level, 0, msg)
}

// Config holds the logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level slog.Level
	// Format is the output format ("text" or "json").
	Format string
	// Output is the log output destination.
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

// SetDefault sets the default global logger.
func SetDefault(logger *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// Default returns the default global logger.
func Default() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// WithSyscall returns a logger with syscall-name context.
func WithSyscall(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("syscall", name))
}

// WithOperation returns a logger with operation context.
func WithOperation(logger *slog.Logger, op string) *slog.Logger {
	return logger.With(slog.String("operation", op))
}

// WithPID returns a logger with process ID context.
func WithPID(logger *slog.Logger, pid int) *slog.Logger {
	return logger.With(slog.Int("pid", pid))
}

// WithHandle returns a logger with a handle-token context.
func WithHandle(logger *slog.Logger, handle string) *slog.Logger {
	return logger.With(slog.String("handle", handle))
}

// ContextWithLogger returns a new context with the logger attached.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves the logger from context.
// If no logger is found, returns the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return Default()
}

// ParseLevel parses a log level string and returns the corresponding slog.Level.
// Valid values: "debug", "info", "warn", "error".
// Returns slog.LevelInfo for invalid values.
func ParseLevel(level string) slog.Level {
	switch level {
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

// Helper functions for common log patterns. Each also mirrors into the
// active ring (see SetActiveRing), so hook and DPC failures surface in
// dmesg_read alongside every syscall-attributed kernel message.

// Info logs an info message using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
	mirrorToRing(LevelInfo, msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
	mirrorToRing(LevelWarn, msg)
}

// Error logs an error message using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
	mirrorToRing(LevelFail, msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
	mirrorToRing(LevelDebug, msg)
}

// InfoContext logs an info message using the logger from context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message using the logger from context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message using the logger from context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}

// DebugContext logs a debug message using the logger from context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}
