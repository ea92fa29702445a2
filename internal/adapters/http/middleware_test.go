package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/livingsystems/orient/internal/observability"
)

func TestChainMiddlewaresLastIsOutermost(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := chainMiddlewares(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
		tag("inner"), tag("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("execution order = %v, want outer before inner", order)
	}
}

// The access logger must observe the request id, so withRequestID has to
// wrap withLogging in the chain.
func TestRequestIDIsSetBeforeLogging(t *testing.T) {
	bare := observability.LoggerFromContext(context.Background())

	var seen *slog.Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.LoggerFromContext(r.Context())
	})

	h := chainMiddlewares(inner, withLogging, withRequestID)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if seen == bare {
		t.Error("request id missing from the context inside the chain")
	}
}
