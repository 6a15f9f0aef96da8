// Package handler defines the request processing contracts shared by the
// router, the response helpers and the middleware packages.
//
// Handlers do not write to the connection directly. They return a Response,
// a function that renders headers, status and body once the middleware chain
// has run. Errors returned by a Response are routed to the ErrorHandler
// configured on the router.
//
//	type Response func(w http.ResponseWriter, r *http.Request) error
//	type HandlerFunc[C Context] func(ctx C) Response
//	type ErrorHandler[C Context] func(ctx C, err error)
//	type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
//
// Context extends context.Context with access to the request, the response
// writer and request-scoped values:
//
//	func summaryHandler(store *presence.Store) handler.HandlerFunc[*router.Context] {
//		return func(ctx *router.Context) handler.Response {
//			return response.JSON(store.Summarize())
//		}
//	}
//
// Middleware wraps a HandlerFunc and may decorate the Response it returns:
//
//	func Timing[C handler.Context]() handler.Middleware[C] {
//		return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//			return func(ctx C) handler.Response {
//				start := time.Now()
//				resp := next(ctx)
//				return func(w http.ResponseWriter, r *http.Request) error {
//					w.Header().Set("X-Elapsed", time.Since(start).String())
//					return resp(w, r)
//				}
//			}
//		}
//	}
package handler
