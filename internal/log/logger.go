package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Setup initializes the global logger writing JSON to stderr.
// Unknown levels fall back to INFO.
func Setup(level string) {
	SetupWriter(level, "json", os.Stderr)
}

// SetupWriter initializes the global logger with an explicit format
// ("json" or "text") and destination. Only the first call takes effect.
func SetupWriter(level, format string, w io.Writer) {
	once.Do(func() {
		logger = newLogger(level, format, w)
		slog.SetDefault(logger)
	})
}

func newLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a case-insensitive level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
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

// base returns the configured logger, or a default one if Setup hasn't been called.
func base() *slog.Logger {
	if logger == nil {
		Setup("INFO")
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return base().With(slog.String("component", name))
}

// WithRun returns a component logger scoped to one run. An empty id is
// left out.
func WithRun(component, id string) *slog.Logger {
	l := WithComponent(component)
	if id == "" {
		return l
	}
	return l.With(slog.String("run_id", id))
}
