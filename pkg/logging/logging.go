// Package logging holds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ServiceName tags every record.
const ServiceName = "retail-analytics"

var (
	mu     sync.RWMutex
	global *slog.Logger
)

// Options selects the handler of a logger built by New.
type Options struct {
	Format string // "json" or "text"
	Level  string // debug|info|warn|error
	Output io.Writer
}

// New builds a logger. Unknown formats fall back to JSON, unknown levels to info
// and a nil Output to stdout.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler).With("service", ServiceName)
}

// ParseLevel maps a level name to a slog level.
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

// Logger returns the process-wide logger. Until SetLogger is called it is built
// from RETAIL_LOG_FORMAT and RETAIL_LOG_LEVEL.
func Logger() *slog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = New(Options{
			Format: os.Getenv("RETAIL_LOG_FORMAT"),
			Level:  os.Getenv("RETAIL_LOG_LEVEL"),
		})
	}
	return global
}

// SetLogger replaces the process-wide logger. Nil is ignored.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// WithComponent tags the shared logger with a component name.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}
