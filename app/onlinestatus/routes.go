package onlinestatus

import (
	"context"
	"net/http"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/health"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/router"
	"github.com/kawahiro39/online-status-trygreen/integration/natsnotify"
	"github.com/kawahiro39/online-status-trygreen/middleware"
)

// Route paths.
const (
	PathPing      = "/presence/ping"
	PathHit       = "/presence/hit"
	PathLeave     = "/presence/leave"
	PathSummary   = "/presence/summary"
	PathStream    = "/presence/stream"
	PathDebug     = "/presence/debug/sessions"
	PathHealthz   = "/healthz"
	PathLiveness  = "/livez"
	PathReadiness = "/readyz"
)

func (a *App) corsConfig() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins:     a.config.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}
}

func (a *App) newRouter() router.Router[*router.Context] {
	r := router.New[*router.Context](
		router.WithLogger[*router.Context](a.logger.With(logger.Component("router"))),
		router.WithErrorHandler(newErrorHandler(a.logger)),
		router.WithMiddleware(
			middleware.RequestID[*router.Context](),
			middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
				Logger: a.logger,
				Skip:   isProbe,
			}),
			middleware.CORSWithConfig[*router.Context](a.corsConfig()),
		),
	)

	limit := a.beaconLimit()
	r.Post(PathPing, limit(a.handleTouch))
	r.Post(PathHit, limit(a.handleTouch))
	r.Post(PathLeave, limit(a.handleLeave))
	r.Get(PathSummary, a.handleSummary)
	r.Get(PathStream, a.handleStream)
	r.Get(PathHealthz, a.handleHealthz)

	r.Get(PathLiveness, health.Liveness[*router.Context])
	r.Get(PathReadiness, health.Readiness[*router.Context](a.logger, a.readinessChecks()...))

	if !a.config.IsProduction() {
		r.Get(PathDebug, a.handleDebugSessions)
	}

	return r
}

// beaconLimit wraps the write endpoints with the per-IP rate limit, or
// returns them unchanged when it is disabled.
func (a *App) beaconLimit() handler.Middleware[*router.Context] {
	if a.limiter == nil {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return next
		}
	}
	return middleware.RateLimitWithConfig[*router.Context](middleware.RateLimitConfig{
		Limiter: a.limiter,
		Logger:  a.logger,
	})
}

func (a *App) readinessChecks() []health.Check {
	checks := []health.Check{{Name: "sweeper", Fn: a.store.Healthcheck}}
	if a.limiter != nil {
		checks = append(checks, health.Check{Name: "ratelimit", Fn: a.limiter.Healthcheck})
	}
	if a.nats != nil {
		nc := a.nats
		checks = append(checks, health.Check{Name: "nats", Fn: func(ctx context.Context) error {
			return natsnotify.Healthcheck(ctx, nc)
		}})
	}
	return checks
}

func isProbe(ctx handler.Context) bool {
	switch ctx.Request().URL.Path {
	case PathHealthz, PathLiveness, PathReadiness:
		return true
	}
	return false
}
