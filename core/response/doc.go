// Package response provides HTTP response helpers returning handler.Response
// values: JSON bodies, bare status codes, error propagation and WebSocket
// upgrades.
//
// # Basic Usage
//
//	func health(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]any{"ok": true})
//	}
//
//	func create(ctx *router.Context) handler.Response {
//		return response.JSONWithStatus(item, http.StatusCreated)
//	}
//
// # Errors
//
// Error passes an error through to the router's error handler. HTTPError
// carries a status and a machine-readable code; it implements StatusCode so
// the router reports the right status:
//
//	return response.Error(response.ErrBadRequest.WithMessage("missing id"))
//
// AsHTTPError turns any error into an HTTPError, defaulting to ErrInternal.
//
// # WebSocket
//
// WebSocket upgrades the connection and runs a handler on it. WebSocketFeed
// is a push-only variant that writes a JSON snapshot on connect, then
// periodically and whenever a trigger channel delivers:
//
//	return response.WebSocketFeed(5*time.Second, func(ctx context.Context) (any, error) {
//		return store.Summarize(), nil
//	}, response.WithWSAllowAnyOrigin(), response.WithWSFeedTrigger(changes))
package response
