package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
)

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	writeTimeout   time.Duration
	onConnect      func(context.Context, *websocket.Conn) error
	onDisconnect   func(context.Context, *websocket.Conn)
	onError        func(context.Context, error)
	feedTrigger    func(context.Context) <-chan struct{}
}

// WebSocketOption configures WebSocket responses.
type WebSocketOption func(*wsConfig)

// WithWSWriteTimeout sets the deadline applied to every frame written by WebSocketFeed.
func WithWSWriteTimeout(timeout time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.writeTimeout = timeout
	}
}

// WithWSOriginCheck overrides the upgrader's origin check.
func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithWSAllowAnyOrigin accepts upgrades from every origin.
func WithWSAllowAnyOrigin() WebSocketOption {
	return WithWSOriginCheck(func(*http.Request) bool { return true })
}

func WithWSOnConnect(fn func(context.Context, *websocket.Conn) error) WebSocketOption {
	return func(c *wsConfig) {
		c.onConnect = fn
	}
}

// WithWSOnDisconnect runs fn after the connection is closed.
func WithWSOnDisconnect(fn func(context.Context, *websocket.Conn)) WebSocketOption {
	return func(c *wsConfig) {
		c.onDisconnect = fn
	}
}

func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// WithWSFeedTrigger makes WebSocketFeed push as soon as ch delivers, in
// addition to the interval ticks. Values arriving faster than they can be
// pushed are coalesced. A closed ch leaves only the ticks.
func WithWSFeedTrigger[T any](ch <-chan T) WebSocketOption {
	return func(c *wsConfig) {
		c.feedTrigger = func(ctx context.Context) <-chan struct{} {
			out := make(chan struct{}, 1)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case _, ok := <-ch:
						if !ok {
							return
						}
						select {
						case out <- struct{}{}:
						default:
						}
					}
				}
			}()
			return out
		}
	}
}

func newWSConfig(opts []WebSocketOption) *wsConfig {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WebSocket upgrades the connection and hands it to messageHandler.
// Upgrade failures are reported to the error handler option; the upgrader
// has already written the HTTP error by then, so the response returns nil.
func WebSocket(messageHandler func(context.Context, *websocket.Conn) error, opts ...WebSocketOption) handler.Response {
	cfg := newWSConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) error {
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			cfg.reportError(r.Context(), err)
			return nil
		}
		defer func() {
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(r.Context(), conn)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(r.Context(), conn); err != nil {
				cfg.reportError(r.Context(), err)
				return nil
			}
		}

		if err := messageHandler(r.Context(), conn); err != nil {
			cfg.reportError(r.Context(), err)
		}
		return nil
	}
}

// WebSocketFeed pushes the value returned by produce as a JSON text frame
// right after the upgrade, then on every interval tick and every
// WithWSFeedTrigger signal. Incoming frames are discarded; the feed ends
// when the peer closes the connection, the request context is done, or a
// write fails.
func WebSocketFeed(interval time.Duration, produce func(context.Context) (any, error), opts ...WebSocketOption) handler.Response {
	cfg := newWSConfig(opts)

	return WebSocket(func(ctx context.Context, conn *websocket.Conn) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// The server's read timeout would otherwise end an idle feed.
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return err
		}

		// Reader detects the close frame or a dropped peer.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		push := func() error {
			v, err := produce(ctx)
			if err != nil {
				return err
			}
			if err := conn.SetWriteDeadline(time.Now().Add(cfg.writeTimeout)); err != nil {
				return err
			}
			return conn.WriteJSON(v)
		}

		if err := push(); err != nil {
			return err
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var trigger <-chan struct{}
		if cfg.feedTrigger != nil {
			trigger = cfg.feedTrigger(ctx)
		}

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return nil
			case <-trigger:
			case <-ticker.C:
			}
			if err := push(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return err
			}
		}
	}, opts...)
}

func (c *wsConfig) reportError(ctx context.Context, err error) {
	if c.onError != nil {
		c.onError(ctx, err)
	}
}
