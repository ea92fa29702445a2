package observability

import (
	"context"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	bare := LoggerFromContext(context.Background())
	if bare != LoggerFromContext(context.Background()) {
		t.Error("untagged contexts should share the process logger")
	}

	tagged := LoggerFromContext(WithRequestID(context.Background(), "req-1"))
	if tagged == bare {
		t.Error("tagged context should get a request-scoped logger")
	}
}

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
		"WARN":  slog.LevelWarn,
	}
	for val, want := range cases {
		t.Setenv("ORIENT_LOG_LEVEL", val)
		if got := levelFromEnv(); got != want {
			t.Errorf("level for %q = %v, want %v", val, got, want)
		}
	}
}
