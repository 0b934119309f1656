package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(t *testing.T, h Handler) http.Handler {
	t.Helper()
	return h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	limiter, _ := testLimiter(t)
	handler := limitedHandler(t, Handler{
		Limiter: limiter,
		Config: Config{
			Key:    func(*http.Request) string { return "quote:global" },
			Window: time.Second,
			Max:    1,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", nil)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req.Clone(req.Context()))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var reported error
	handler := limitedHandler(t, Handler{
		Limiter: Limiter{Client: client, Prefix: "test:"},
		Config: Config{
			Key:    func(*http.Request) string { return "unreachable" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { reported = err },
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Error(t, reported)
}

func TestMiddlewareSkipsEmptyKey(t *testing.T) {
	limiter, mr := testLimiter(t)
	handler := limitedHandler(t, Handler{
		Limiter: limiter,
		Config: Config{
			Key:    func(*http.Request) string { return "" },
			Window: time.Second,
			Max:    1,
		},
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Empty(t, mr.Keys())
}
