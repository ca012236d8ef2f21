// Package logging provides structured logging for the RecipeAI core.
//
// The package wraps log/slog behind the same façade the rest of the code
// uses everywhere: package-level Debug/Info/Warn/Error calls with an
// optional context map. Output is either tinted console text (interactive
// use) or JSON (log shipping), selected at Init time.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var (
	global *slog.Logger
	once   sync.Once
	mu     sync.RWMutex
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, level string, format Format) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		global = newLogger(out, level, format)
	})
}

// Get returns the global logger, initializing a console logger at info
// level if Init was never called.
func Get() *slog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(os.Stderr, "info", FormatConsole)
	return Get()
}

func newLogger(out io.Writer, level string, format Format) *slog.Logger {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(level)})
	default:
		handler = tint.NewHandler(out, &tint.Options{
			Level:      parseLevel(level),
			TimeFormat: time.Kitchen,
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
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

// With returns a logger with a component attribute attached, the
// convention used by every subsystem in this repo.
func With(component string) *slog.Logger {
	return Get().With("component", component)
}

// fields flattens a context map into slog attributes.
func fields(context map[string]any) []any {
	if len(context) == 0 {
		return nil
	}
	attrs := make([]any, 0, len(context)*2)
	for k, v := range context {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// Debug logs a debug message with an optional context map.
func Debug(message string, context map[string]any) {
	Get().Debug(message, fields(context)...)
}

// Info logs an info message with an optional context map.
func Info(message string, context map[string]any) {
	Get().Info(message, fields(context)...)
}

// Warn logs a warning message with an optional context map.
func Warn(message string, context map[string]any) {
	Get().Warn(message, fields(context)...)
}

// Error logs an error message with an optional context map.
func Error(message string, err error, context map[string]any) {
	attrs := fields(context)
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	Get().Error(message, attrs...)
}
