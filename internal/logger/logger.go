package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pooled-savings-ledger/internal/config"
)

type correlationKey struct{}

// ParseLevel maps a configured level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// NewLogger creates the process JSON logger on stdout
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.Logging.Level)
	logger.Info("logger initialized", "level", ParseLevel(cfg.Logging.Level))
	return logger
}

// New creates a JSON logger writing to w. Source locations are added at debug level.
func New(w io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ContextWithCorrelationID stores the request or command correlation id in ctx
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by ContextWithCorrelationID, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// FromContext decorates base with the correlation id carried by ctx
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}
