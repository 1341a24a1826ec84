package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the process-wide logger. It writes through slog.Default until Init runs.
var L = slog.Default()

type contextKey string

const loggerKey contextKey = "logger"

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds a JSON (or, with format "text", a text) logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init sets up the global logger on stderr. Call once at startup, after
// loading config.
func Init(level, format string) *slog.Logger {
	L = New(os.Stderr, level, format)
	slog.SetDefault(L)
	if _, ok := ParseLevel(level); !ok {
		L.Warn("invalid log level, defaulting to info", "configured", level)
	}
	return L
}

// Discard silences the global logger, for tests and one-shot CLI commands.
func Discard() {
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FromContext retrieves a logger from context, or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return L
}

// ToContext embeds a logger into a context.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
