package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/router"
	"github.com/kawahiro39/online-status-trygreen/middleware"
	"github.com/kawahiro39/online-status-trygreen/pkg/ratelimiter"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimiter.Result, error) {
	return ratelimiter.Result{}, errors.New("boom")
}

func newRateLimitRouter(mw handler.Middleware[*router.Context]) router.Router[*router.Context] {
	r := router.New[*router.Context](router.WithMiddleware(mw))
	r.Post("/ping", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusOK)
			return nil
		}
	})
	return r
}

func postFrom(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: 2, RefillRate: 2, RefillInterval: time.Minute})
	require.NoError(t, err)
	r := newRateLimitRouter(middleware.RateLimit[*router.Context](limiter))

	w := postFrom(r, "198.51.100.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, postFrom(r, "198.51.100.1").Code)

	w = postFrom(r, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, postFrom(r, "198.51.100.2").Code, "other clients keep their own bucket")
}

func TestRateLimitSkipAndKey(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	r := newRateLimitRouter(middleware.RateLimitWithConfig[*router.Context](middleware.RateLimitConfig{
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().Header.Get("X-Internal") != ""
		},
		Limiter:      limiter,
		KeyExtractor: func(handler.Context) string { return "shared" },
	}))

	assert.Equal(t, http.StatusOK, postFrom(r, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(r, "198.51.100.2").Code)

	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.Header.Set("X-Internal", "1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	t.Parallel()

	r := newRateLimitRouter(middleware.RateLimit[*router.Context](failingLimiter{}))
	assert.Equal(t, http.StatusOK, postFrom(r, "198.51.100.1").Code)
}

func TestRateLimitRequiresLimiter(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.RateLimitWithConfig[*router.Context](middleware.RateLimitConfig{})
	})
}
