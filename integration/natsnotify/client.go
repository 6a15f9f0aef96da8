package natsnotify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kawahiro39/online-status-trygreen/core/logger"
)

// Connect opens a NATS connection that keeps reconnecting forever. The
// first connection attempt is retried in the background as well, so an
// unavailable server at startup does not stop the service; publishes made
// meanwhile are buffered by the client.
func Connect(cfg Config, log *slog.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("nats"))

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", logger.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	log.Info("nats connection opened", slog.String("name", cfg.ClientName))
	return nc, nil
}

// Healthcheck fails when the connection is closed or not currently connected.
func Healthcheck(ctx context.Context, nc *nats.Conn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if nc == nil || !nc.IsConnected() {
		status := "nil"
		if nc != nil {
			status = nc.Status().String()
		}
		return fmt.Errorf("%w: status %s", ErrHealthcheckFailed, status)
	}
	return nil
}

// Drain flushes pending publishes and closes the connection, waiting at
// most timeout.
func Drain(nc *nats.Conn, timeout time.Duration) error {
	if nc == nil || nc.IsClosed() {
		return nil
	}
	if err := nc.Drain(); err != nil {
		nc.Close()
		return err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for !nc.IsClosed() {
		select {
		case <-deadline.C:
			nc.Close()
			return ErrDrainTimeout
		case <-tick.C:
		}
	}
	return nil
}
