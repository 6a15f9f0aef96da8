// Package router provides a small generic HTTP router with middleware
// support and type-safe request contexts.
//
// Routes are matched by exact path and method. Middleware registered with
// Use or WithMiddleware wraps route lookup itself, so it runs for every
// request, including preflight OPTIONS requests and requests that end as
// 404 or 405. This is what lets a CORS middleware answer preflights for
// routes that only register POST.
//
// # Basic Usage
//
//	r := router.New[*router.Context](
//		router.WithMiddleware(middleware.RequestID[*router.Context]()),
//	)
//
//	r.Get("/healthz", func(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]any{"ok": true})
//	})
//
//	http.ListenAndServe(":8080", r)
//
// # Error Handling
//
// Errors returned by a handler.Response and recovered panics go to the error
// handler. The default one writes plain text with the status reported by the
// error's StatusCode method, or 500. Unknown paths yield ErrNotFound, known
// paths with an unregistered method yield ErrMethodNotAllowed together with
// an Allow header.
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(func(ctx *router.Context, err error) {
//			var pe router.PanicError
//			if errors.As(err, &pe) {
//				log.Error("panic", "stack", string(pe.Stack()))
//			}
//			_ = response.JSONWithStatus(apiError(err), router.StatusCode(err))(
//				ctx.ResponseWriter(), ctx.Request())
//		}),
//	)
//
// # Custom Contexts
//
// Any type implementing handler.Context can be used; provide a factory with
// WithContextFactory. The default *Context needs no factory.
package router
