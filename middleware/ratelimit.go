package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/response"
	"github.com/kawahiro39/online-status-trygreen/pkg/clientip"
	"github.com/kawahiro39/online-status-trygreen/pkg/ratelimiter"
)

// RateLimiter is satisfied by *ratelimiter.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimiter.Result, error)
}

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Skip func(ctx handler.Context) bool

	Limiter RateLimiter

	// KeyExtractor picks the bucket key. Defaults to the client IP.
	KeyExtractor func(ctx handler.Context) string

	// Logger receives limiter failures. Optional.
	Logger *slog.Logger
}

// RateLimit limits requests per client IP.
func RateLimit[C handler.Context](limiter RateLimiter) handler.Middleware[C] {
	return RateLimitWithConfig[C](RateLimitConfig{Limiter: limiter})
}

// RateLimitWithConfig returns a rate limiting middleware. Every limited
// response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset; rejected requests also get Retry-After and fail with
// response.ErrTooManyRequests. A limiter error lets the request through.
func RateLimitWithConfig[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Limiter == nil {
		panic("middleware: rate limiter is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(ctx handler.Context) string {
			return clientip.GetIP(ctx.Request())
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			key := cfg.KeyExtractor(ctx)
			res, err := cfg.Limiter.Allow(ctx, key)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.WarnContext(ctx, "rate limiter failed",
						logger.Component("ratelimit"), slog.String("key", key), logger.Error(err))
				}
				return next(ctx)
			}

			setHeaders := func(h http.Header) {
				h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}

			if !res.Allowed() {
				return func(w http.ResponseWriter, r *http.Request) error {
					setHeaders(w.Header())
					retry := int(math.Ceil(res.RetryAfter().Seconds()))
					w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
					return response.ErrTooManyRequests.WithError(ratelimiter.ErrRateLimitExceeded)
				}
			}

			resp := next(ctx)
			return func(w http.ResponseWriter, r *http.Request) error {
				setHeaders(w.Header())
				return resp(w, r)
			}
		}
	}
}
