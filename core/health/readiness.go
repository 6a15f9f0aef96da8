package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/response"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 2 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Report is the readiness response body.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Readiness runs every check in order and answers 200 when all pass and
// 503 otherwise. The body lists "ok" or the error text per check.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx C) handler.Response {
		report := Report{OK: true, Checks: make(map[string]string, len(checks))}

		for _, c := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
			err := c.Fn(checkCtx)
			cancel()

			if err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					slog.String("check", c.Name),
					logger.Error(err),
				)
				report.OK = false
				report.Checks[c.Name] = err.Error()
				continue
			}
			report.Checks[c.Name] = "ok"
		}

		if !report.OK {
			return response.JSONWithStatus(report, http.StatusServiceUnavailable)
		}
		return response.JSON(report)
	}
}
