package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLimiter() *RateLimiter {
	return NewRateLimiter(map[string]RateLimit{
		"orders": {RatePerSecond: 1, Burst: 2},
	})
}

func serveOnce(rl *RateLimiter, route string, req *http.Request) int {
	rec := httptest.NewRecorder()
	handler := rl.Middleware(route)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := newTestLimiter()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-API-Key", "trader-1")

	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", req))
	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", req))
	require.Equal(t, http.StatusTooManyRequests, serveOnce(rl, "orders", req))
}

func TestRateLimiterSeparatesRoutes(t *testing.T) {
	rl := newTestLimiter()
	rl.limits["cancel"] = RateLimit{RatePerSecond: 1, Burst: 2}

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-API-Key", "trader-1")

	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", req))
	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", req))
	require.Equal(t, http.StatusOK, serveOnce(rl, "cancel", req))
}

func TestRateLimiterPassesUnlistedRoutes(t *testing.T) {
	rl := newTestLimiter()

	req := httptest.NewRequest(http.MethodPost, "/unlisted", nil)
	req.Header.Set("X-API-Key", "trader-1")

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, serveOnce(rl, "unlisted", req))
	}
}

func TestRateLimiterPrefersAPIKeyOverIP(t *testing.T) {
	rl := newTestLimiter()

	first := httptest.NewRequest(http.MethodPost, "/orders", nil)
	first.Header.Set("X-API-Key", "trader-1")
	first.RemoteAddr = "10.0.0.1:1111"

	second := httptest.NewRequest(http.MethodPost, "/orders", nil)
	second.Header.Set("X-API-Key", "trader-1")
	second.RemoteAddr = "10.0.0.2:2222"

	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", first))
	require.Equal(t, http.StatusOK, serveOnce(rl, "orders", second))
	require.Equal(t, http.StatusTooManyRequests, serveOnce(rl, "orders", first))
}
