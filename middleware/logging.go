package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/pkg/clientip"
)

// LoggingConfig configures the Logging middleware.
type LoggingConfig struct {
	Skip func(ctx handler.Context) bool

	Logger *slog.Logger

	// LogLevel for successful requests; 4xx log at warn, 5xx at error.
	LogLevel slog.Level

	// SlowRequestThreshold raises successful requests slower than this to warn.
	SlowRequestThreshold time.Duration

	Component string
}

// Logging logs one record per request with the default slog logger.
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig logs method, path, status, latency, response size,
// client address and request ID once the response has been written.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
				err := response(wrapped, r)

				status := wrapped.statusCode
				if err != nil && !wrapped.headerWritten {
					// The router's error handler writes the real status after us.
					status = statusFromError(err)
				}
				latency := time.Since(start)

				attrs := []slog.Attr{
					logger.Component(cfg.Component),
					logger.Event("request"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(status),
					logger.Latency(latency),
					slog.Int("bytes_out", wrapped.size),
					logger.ClientIP(clientip.GetIP(r)),
					logger.UserAgent(r.UserAgent()),
				}
				if id, ok := GetRequestID(r.Context()); ok {
					attrs = append(attrs, logger.RequestID(id))
				}
				if wrapped.hijacked {
					attrs = append(attrs, slog.Bool("upgraded", true))
				}
				if err != nil {
					attrs = append(attrs, logger.Error(err))
				}

				level := cfg.LogLevel
				switch {
				case status >= 500:
					level = slog.LevelError
				case status >= 400 || latency > cfg.SlowRequestThreshold:
					level = max(level, slog.LevelWarn)
				}

				cfg.Logger.LogAttrs(r.Context(), level, "http request", attrs...)
				return err
			}
		}
	}
}

func statusFromError(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// statusRecorder captures the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
	hijacked      bool
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	if rw.headerWritten {
		return
	}
	rw.statusCode = statusCode
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, buf, err := h.Hijack()
	if err == nil {
		rw.hijacked = true
		rw.headerWritten = true
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
