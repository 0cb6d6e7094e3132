// Package logger provides the structured logger shared by linkers packages
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	current *slog.Logger
	mu      sync.RWMutex
)

func init() {
	current = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Options configures the logger
type Options struct {
	Debug  bool      // Enable debug level logging
	Quiet  bool      // Only show errors
	JSON   bool      // Output as JSON
	Output io.Writer // Output destination (default: stderr)
}

// Init replaces the package logger according to opts
func Init(opts Options) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelError
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}

	SetLogger(slog.New(handler))
}

// SetLogger installs a caller-provided logger
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// L returns the current logger
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debug logs a debug message
func Debug(msg string, args ...any) { L().Debug(msg, args...) }

// Info logs an info message
func Info(msg string, args ...any) { L().Info(msg, args...) }

// Warn logs a warning message
func Warn(msg string, args ...any) { L().Warn(msg, args...) }

// Error logs an error message
func Error(msg string, args ...any) { L().Error(msg, args...) }

// With returns a logger carrying the given attributes
func With(args ...any) *slog.Logger { return L().With(args...) }
