package onlinestatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/response"
	"github.com/kawahiro39/online-status-trygreen/core/router"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

type touchResponse struct {
	OK      bool   `json:"ok"`
	Ignored string `json:"ignored,omitempty"`
}

type leaveResponse struct {
	OK      bool `json:"ok"`
	Deleted int  `json:"deleted"`
}

type summaryResponse struct {
	OK bool `json:"ok"`
	presence.Summary
}

type healthzResponse struct {
	OK       bool `json:"ok"`
	Sessions int  `json:"sessions"`
}

type debugResponse struct {
	OK bool `json:"ok"`
	presence.Snapshot
	Stats   presence.Stats `json:"stats"`
	Streams int            `json:"streams"`
}

// handleTouch serves both ping and hit.
func (a *App) handleTouch(ctx *router.Context) handler.Response {
	ev, err := presence.DecodeEvent(ctx.Request().Body)
	if err != nil {
		return response.Error(apiError(err))
	}

	res, err := a.store.Touch(ctx, ev)
	if err != nil {
		return response.Error(apiError(err))
	}

	return response.JSON(touchResponse{OK: true, Ignored: res.Ignored})
}

func (a *App) handleLeave(ctx *router.Context) handler.Response {
	ev, err := presence.DecodeEvent(ctx.Request().Body)
	if err != nil {
		return response.Error(apiError(err))
	}

	deleted := a.store.Remove(ctx, ev)

	attrs := []slog.Attr{
		logger.Component("presence"),
		logger.UserID(presence.NormalizeUserID(ev.UID)),
		logger.ClientID(presence.NormalizeClientID(ev.ClientID)),
		slog.Bool("deleted", deleted),
	}
	if ev.HasPath {
		attrs = append(attrs, logger.Path(presence.NormalizePath(ev.Path)))
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "presence_leave", attrs...)

	res := leaveResponse{OK: true}
	if deleted {
		res.Deleted = 1
	}
	return response.JSON(res)
}

func (a *App) handleSummary(ctx *router.Context) handler.Response {
	return response.JSON(summaryResponse{OK: true, Summary: a.store.Summarize()})
}

// handleHealthz sweeps before counting so the figure excludes expired sessions.
func (a *App) handleHealthz(ctx *router.Context) handler.Response {
	a.store.Sweep(ctx)
	return response.JSON(healthzResponse{OK: true, Sessions: a.store.Len()})
}

func (a *App) handleDebugSessions(ctx *router.Context) handler.Response {
	return response.JSON(debugResponse{
		OK:       true,
		Snapshot: a.store.Snapshot(),
		Stats:    a.store.Stats(),
		Streams:  a.changes.Len(),
	})
}

// handleStream pushes the summary over a WebSocket on connect, after every
// store change and at least every stream interval.
func (a *App) handleStream(ctx *router.Context) handler.Response {
	cors := a.corsConfig()
	log := a.logger.With(logger.Component("stream"))

	// Unsubscribed when the request context ends.
	changes := a.changes.Subscribe(ctx)

	return response.WebSocketFeed(a.config.StreamInterval,
		func(context.Context) (any, error) {
			return summaryResponse{OK: true, Summary: a.store.Summarize()}, nil
		},
		response.WithWSOriginCheck(func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || cors.AllowsOrigin(origin)
		}),
		response.WithWSFeedTrigger(changes.Receive(ctx)),
		response.WithWSOnDisconnect(func(ctx context.Context, _ *websocket.Conn) {
			_ = changes.Close()
			log.DebugContext(ctx, "presence stream closed", slog.Int("streams", a.changes.Len()))
		}),
		response.WithWSErrorHandler(func(ctx context.Context, err error) {
			log.DebugContext(ctx, "presence stream ended", logger.Error(err))
		}),
	)
}
