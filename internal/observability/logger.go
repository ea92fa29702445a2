package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

var requestIDKey ctxKey

// base is the process-wide logger: JSON to stdout, level taken from
// ORIENT_LOG_LEVEL (debug, info, warn, error; default info).
var base = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: levelFromEnv(),
}))

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("ORIENT_LOG_LEVEL")) {
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

// WithRequestID tags the context so every downstream log line for the
// request can be correlated.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// LoggerFromContext returns the process logger, with request_id attached
// when the context carries one.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if id, _ := ctx.Value(requestIDKey).(string); id != "" {
		return base.With("request_id", id)
	}
	return base
}
