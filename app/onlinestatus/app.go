package onlinestatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/core/router"
	"github.com/kawahiro39/online-status-trygreen/core/server"
	"github.com/kawahiro39/online-status-trygreen/integration/natsnotify"
	"github.com/kawahiro39/online-status-trygreen/middleware"
	"github.com/kawahiro39/online-status-trygreen/pkg/broadcast"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
	"github.com/kawahiro39/online-status-trygreen/pkg/ratelimiter"
)

// App wires the presence store to the HTTP surface and owns the lifecycle
// of the server, the sweeper and the optional NATS connection.
type App struct {
	config Config
	logger *slog.Logger
	store  *presence.Store
	router router.Router[*router.Context]
	server *server.Server
	nats   *nats.Conn

	limiter *ratelimiter.Limiter

	// changes fans store transitions out to open summary streams.
	changes *broadcast.MemoryBroadcaster[presence.Change]

	storeOpts []presence.Option
}

type AppOption func(*App) error

// Per-stream buffer of pending change signals. Bursts beyond it are
// coalesced into the next push anyway.
const changeBufferSize = 16

// NewApp builds the application from cfg. Without options it creates its
// own logger, store, router and server; a NATS connection is opened when
// NATS_URL is set.
func NewApp(cfg Config, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		config:  cfg,
		changes: broadcast.NewMemoryBroadcaster[presence.Change](changeBufferSize),
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = NewLogger(cfg)
	}

	if app.store == nil {
		storeOpts := []presence.Option{
			presence.WithActiveWindow(cfg.ActiveWindow),
			presence.WithCloseWindow(cfg.CloseWindow),
			presence.WithSweepInterval(cfg.SweepInterval),
			presence.WithTombstoneTTL(cfg.TombstoneTTL),
			presence.WithLogger(app.logger.With(logger.Component("presence"))),
			presence.WithNotifier(presence.NotifierFunc(app.publishChange)),
		}

		if cfg.NATS.Enabled() {
			nc, err := natsnotify.Connect(cfg.NATS, app.logger)
			if err != nil {
				return nil, err
			}
			app.nats = nc
			storeOpts = append(storeOpts, presence.WithNotifier(
				natsnotify.NewNotifier(nc, cfg.NATS.SubjectPrefix, app.logger.With(logger.Component("nats"))),
			))
		}

		app.store = presence.NewStore(append(storeOpts, app.storeOpts...)...)
	}

	if cfg.RateLimit.Enabled() {
		l, err := ratelimiter.New(cfg.RateLimit,
			ratelimiter.WithLogger(app.logger.With(logger.Component("ratelimit"))),
		)
		if err != nil {
			return nil, err
		}
		app.limiter = l
	}

	if app.router == nil {
		app.router = app.newRouter()
	}

	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger.With(logger.Component("server"))))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	return app, nil
}

// NewLogger creates the service logger: JSON in production, text otherwise.
func NewLogger(cfg Config) *slog.Logger {
	envOpt := logger.WithDevelopment(cfg.AppName)
	if cfg.IsProduction() {
		envOpt = logger.WithProduction(cfg.AppName)
	}
	return logger.New(
		envOpt,
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
}

func WithLogger(log *slog.Logger) AppOption {
	return func(app *App) error {
		if log == nil {
			return fmt.Errorf("%w: logger", ErrNilOption)
		}
		app.logger = log
		return nil
	}
}

// WithStore replaces the store built from the configuration. Summary streams
// then refresh on their interval only.
func WithStore(store *presence.Store) AppOption {
	return func(app *App) error {
		if store == nil {
			return fmt.Errorf("%w: store", ErrNilOption)
		}
		app.store = store
		return nil
	}
}

// WithStoreOptions appends options to the store built from the configuration.
func WithStoreOptions(opts ...presence.Option) AppOption {
	return func(app *App) error {
		app.storeOpts = append(app.storeOpts, opts...)
		return nil
	}
}

func WithServer(s *server.Server) AppOption {
	return func(app *App) error {
		if s == nil {
			return fmt.Errorf("%w: server", ErrNilOption)
		}
		app.server = s
		return nil
	}
}

func (a *App) publishChange(ctx context.Context, c presence.Change) {
	// Fails only after shutdown closed the broadcaster.
	_ = a.changes.Broadcast(context.WithoutCancel(ctx), broadcast.Message[presence.Change]{Data: c})
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.router
}

// Store returns the presence store.
func (a *App) Store() *presence.Store {
	return a.store
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run serves HTTP and runs the sweeper until ctx is canceled, then shuts
// everything down and drains the NATS connection.
func (a *App) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(a.server.Run(ctx, a.router))

	eg.Go(func() error {
		// A store built with a zero sweep interval is swept by /healthz only.
		if err := a.store.Run(ctx)(); err != nil && !errors.Is(err, presence.ErrSweepDisabled) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		return a.changes.Close()
	})

	if a.limiter != nil {
		eg.Go(a.limiter.Run(ctx))
	}

	if a.nats != nil {
		eg.Go(func() error {
			<-ctx.Done()
			if err := natsnotify.Drain(a.nats, a.config.NATS.DrainTimeout); err != nil {
				a.logger.Warn("nats drain failed", logger.Component("nats"), logger.Error(err))
			}
			return nil
		})
	}

	a.logger.InfoContext(ctx, "online status service starting",
		slog.String("addr", a.config.Server.Addr()),
		slog.String("env", a.config.Env),
		slog.Any("allow_origins", a.config.AllowOrigins),
		slog.Bool("nats", a.nats != nil),
		slog.Bool("rate_limit", a.limiter != nil),
	)

	if err := eg.Wait(); err != nil {
		return err
	}

	a.logger.Info("online status service stopped")
	return nil
}
