package router

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
)

// mux is the private implementation of Router interface.
type mux[C handler.Context] struct {
	routes       map[string]map[string]handler.HandlerFunc[C] // path -> method -> handler
	registered   []Route
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request) C
	logger       *slog.Logger
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		routes:       make(map[string]map[string]handler.HandlerFunc[C]),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request) C {
			// Only the default *Context works without a factory
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// ServeHTTP implements http.Handler interface.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)
	ctx := m.newContext(ww, r)

	// Recover from panics to prevent server crashes
	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{
				value: p,
				stack: debug.Stack(),
			}

			if ww.Written() {
				m.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
				return
			}
			m.errorHandler(ctx, panicErr)
		}
	}()

	var fn handler.HandlerFunc[C] = m.dispatch
	if len(m.middlewares) > 0 {
		fn = chain(m.middlewares, fn)
	}

	response := fn(ctx)
	if response == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := response(ww, ctx.Request()); err != nil {
		m.errorHandler(ctx, err)
	}
}

// dispatch looks up the route for the request and runs its handler.
func (m *mux[C]) dispatch(ctx C) handler.Response {
	r := ctx.Request()

	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	methods, ok := m.routes[path]
	if !ok {
		return errorResponse(ErrNotFound)
	}

	fn, ok := methods[r.Method]
	if !ok && r.Method == http.MethodHead {
		fn, ok = methods[http.MethodGet]
	}
	if !ok {
		allowed := make([]string, 0, len(methods))
		for method := range methods {
			allowed = append(allowed, method)
		}
		slices.Sort(allowed)

		return func(w http.ResponseWriter, _ *http.Request) error {
			// Allow header per RFC 7231 before responding with 405
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			return ErrMethodNotAllowed
		}
	}

	return fn(ctx)
}

// Get registers a handler for GET requests.
func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

// Post registers a handler for POST requests.
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

// Put registers a handler for PUT requests.
func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

// Delete registers a handler for DELETE requests.
func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

// Patch registers a handler for PATCH requests.
func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

// Options registers a handler for OPTIONS requests.
func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Method registers a handler for the given HTTP methods.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	for _, method := range methods {
		m.handle(strings.ToUpper(method), pattern, h)
	}
}

// Use appends middleware to the router's middleware stack.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

// Routes returns registered routes in registration order.
func (m *mux[C]) Routes() []Route {
	return slices.Clone(m.registered)
}

func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	if pattern == "" || pattern[0] != '/' {
		panic(ErrInvalidPattern)
	}

	if m.routes[pattern] == nil {
		m.routes[pattern] = make(map[string]handler.HandlerFunc[C])
	}
	if _, exists := m.routes[pattern][method]; !exists {
		m.registered = append(m.registered, Route{Method: method, Pattern: pattern})
	}
	m.routes[pattern][method] = h
}

// chain builds a single handler from a middleware stack and endpoint.
func chain[C handler.Context](middlewares []handler.Middleware[C], endpoint handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	h := endpoint

	// Wrap in reverse order so the first middleware runs first
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

func errorResponse(err error) handler.Response {
	return func(http.ResponseWriter, *http.Request) error {
		return err
	}
}
