package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/response"
)

// CORSConfig defines configuration options for CORS middleware.
type CORSConfig struct {
	// Skip allows bypassing CORS handling for specific requests
	Skip func(ctx handler.Context) bool

	// AllowOrigins lists the exact origins that receive
	// Access-Control-Allow-Origin. "*" allows every origin.
	AllowOrigins []string

	// AllowMethods is sent on every response.
	// If empty, defaults to GET, POST, OPTIONS.
	AllowMethods []string

	// AllowHeaders is sent on every response.
	// If empty, defaults to Content-Type.
	AllowHeaders []string

	// ExposeHeaders specifies which headers are exposed to allowed origins
	ExposeHeaders []string

	// AllowCredentials sends Access-Control-Allow-Credentials to allowed
	// origins. Never sent together with a wildcard origin.
	AllowCredentials bool

	// MaxAge specifies how long preflight results can be cached (in seconds)
	MaxAge int
}

// AllowsOrigin reports whether origin is on the allow list.
func (cfg CORSConfig) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(cfg.AllowOrigins, "*") || slices.Contains(cfg.AllowOrigins, origin)
}

// CORS returns a CORS middleware for the given origins with default
// methods and headers and credentials enabled.
func CORS[C handler.Context](origins ...string) handler.Middleware[C] {
	return CORSWithConfig[C](CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
	})
}

// CORSWithConfig returns a CORS middleware with custom configuration.
//
// Allowed methods and headers are advertised on every response, whatever the
// origin. Allowed origins additionally get their origin echoed back, the
// credentials flag and Vary: Origin. Every OPTIONS request is answered with
// 204 No Content before routing, so preflights work for routes that only
// register POST. Disallowed origins are not rejected here; the browser
// enforces the missing Allow-Origin header.
//
//	r.Use(middleware.CORSWithConfig[*router.Context](middleware.CORSConfig{
//		AllowOrigins:     []string{"https://app.example.com"},
//		AllowCredentials: true,
//		MaxAge:           600,
//	}))
func CORSWithConfig[C handler.Context](cfg CORSConfig) handler.Middleware[C] {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Content-Type"}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ",")
	allowHeaders := strings.Join(cfg.AllowHeaders, ",")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ",")
	wildcard := slices.Contains(cfg.AllowOrigins, "*")

	allowOriginsMap := make(map[string]bool, len(cfg.AllowOrigins))
	for _, origin := range cfg.AllowOrigins {
		allowOriginsMap[origin] = true
	}

	setHeaders := func(h http.Header, origin string) {
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)

		if origin == "" || (!wildcard && !allowOriginsMap[origin]) {
			return
		}

		if wildcard && !cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if exposeHeaders != "" {
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		h.Add("Vary", "Origin")
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			origin := ctx.Request().Header.Get("Origin")

			if ctx.Request().Method == http.MethodOptions {
				return func(w http.ResponseWriter, r *http.Request) error {
					setHeaders(w.Header(), origin)
					if cfg.MaxAge > 0 {
						w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
					return response.NoContent()(w, r)
				}
			}

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				setHeaders(w.Header(), origin)
				return resp(w, r)
			}
		}
	}
}
