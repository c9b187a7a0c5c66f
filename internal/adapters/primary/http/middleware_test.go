package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobogganhq/toboggan/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestSecurityHeadersMiddleware_SetsExpectedHeaders(t *testing.T) {
	handler := securityHeadersMiddleware(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "", rr.Header().Get("Server"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestCreateLoggingMiddleware_PassesThroughResponse(t *testing.T) {
	handler := createLoggingMiddleware(okHandler(), logging.New("test", false))
	req := httptest.NewRequest(http.MethodGet, "/some/path", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCreateRecoveryMiddleware_RecoversFromPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := createRecoveryMiddleware(panicking, logging.New("test", false))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rr, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRateLimiter_AllowsUpToLimitThenBlocks(t *testing.T) {
	rl := newRateLimiter()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.isAllowed("1.2.3.4", 3, time.Minute), "request %d should be allowed", i)
	}
	assert.False(t, rl.isAllowed("1.2.3.4", 3, time.Minute), "the 4th request within the window must be blocked")
}

func TestRateLimiter_TracksClientsIndependently(t *testing.T) {
	rl := newRateLimiter()

	assert.True(t, rl.isAllowed("1.1.1.1", 1, time.Minute))
	assert.False(t, rl.isAllowed("1.1.1.1", 1, time.Minute))
	assert.True(t, rl.isAllowed("2.2.2.2", 1, time.Minute), "a different client must not be affected by another's limit")
}

func TestGetClientIP_PrefersXForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestGetClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "10.0.0.1", getClientIP(req))
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	// Use a fresh limiter indirectly is not possible since the middleware
	// wraps the package-level globalRateLimiter; exercise the handler path
	// instead with an IP unlikely to collide with other tests in this file.
	handler := rateLimitMiddleware(okHandler())

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "198.51.100.7:9999"
		return r
	}

	var lastCode int
	for i := 0; i < 101; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req())
		lastCode = rr.Code
	}
	require.Equal(t, http.StatusTooManyRequests, lastCode)
}
