package onlinestatus

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/response"
	"github.com/kawahiro39/online-status-trygreen/core/router"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNilOption     = errors.New("option value cannot be nil")
)

var (
	errInvalidBody     = response.NewHTTPError(http.StatusBadRequest, presence.ErrInvalidBody.Error())
	errInvalidClientID = response.NewHTTPError(http.StatusBadRequest, presence.ErrInvalidClientID.Error())
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// apiError maps store and routing errors to HTTP errors.
func apiError(err error) response.HTTPError {
	switch {
	case errors.Is(err, presence.ErrInvalidBody):
		return errInvalidBody.WithError(err)
	case errors.Is(err, presence.ErrInvalidClientID):
		return errInvalidClientID.WithError(err)
	case errors.Is(err, router.ErrNotFound):
		return response.ErrNotFound.WithError(err)
	case errors.Is(err, router.ErrMethodNotAllowed):
		return response.ErrMethodNotAllowed.WithError(err)
	}
	return response.AsHTTPError(err)
}

// newErrorHandler renders errors as {"ok":false,"error":"<code>"}.
// Server errors are logged; recovered panics include the stack.
func newErrorHandler(log *slog.Logger) handler.ErrorHandler[*router.Context] {
	return func(ctx *router.Context, err error) {
		he := apiError(err)

		if he.StatusCode() >= http.StatusInternalServerError {
			attrs := []any{logger.Component("http"), logger.Error(err), logger.Path(ctx.Request().URL.Path)}
			var pe router.PanicError
			if errors.As(err, &pe) {
				attrs = append(attrs, slog.String("stack", string(pe.Stack())))
			}
			log.ErrorContext(ctx, "request failed", attrs...)
		}

		w := ctx.ResponseWriter()
		if ww, ok := w.(interface{ Written() bool }); ok && ww.Written() {
			return
		}

		if err := response.JSONWithStatus(errorBody{Error: he.Code}, he.StatusCode())(w, ctx.Request()); err != nil {
			log.ErrorContext(ctx, "failed to write error response", logger.Error(err))
		}
	}
}
