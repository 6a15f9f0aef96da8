// Package middleware provides the HTTP middleware used by the service:
// CORS, request IDs, request logging and rate limiting. Each constructor is
// generic over the handler.Context type and has a WithConfig variant.
//
//	r := router.New[*router.Context](
//		router.WithMiddleware(
//			middleware.RequestID[*router.Context](),
//			middleware.LoggingWithLogger[*router.Context](log),
//			middleware.CORS[*router.Context]("https://app.example.com"),
//		),
//	)
//
// The router runs middleware before route lookup, so CORS answers OPTIONS
// for every path with 204 No Content.
//
// RequestID stores the ID in the request context; GetRequestID reads it back
// and RequestIDExtractor feeds it into logger.WithContextExtractors.
//
// RateLimit is a plain Middleware, so it can wrap single handlers:
//
//	limit := middleware.RateLimit[*router.Context](limiter)
//	r.Post("/presence/ping", limit(handlePing))
package middleware
