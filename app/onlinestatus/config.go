package onlinestatus

import (
	"fmt"
	"time"

	"github.com/kawahiro39/online-status-trygreen/core/server"
	"github.com/kawahiro39/online-status-trygreen/integration/natsnotify"
	"github.com/kawahiro39/online-status-trygreen/pkg/ratelimiter"
)

const envProduction = "production"

// Config is the service configuration, loaded from the environment.
type Config struct {
	Server server.Config
	NATS   natsnotify.Config

	// Per client IP limit on ping, hit and leave. Zero capacity disables it.
	RateLimit ratelimiter.Config `envPrefix:"PRESENCE_"`

	AppName  string `env:"APP_NAME" envDefault:"online-status"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"https://solar-system-82998.bubbleapps.io"`

	ActiveWindow   time.Duration `env:"PRESENCE_ACTIVE_WINDOW" envDefault:"30s"`
	CloseWindow    time.Duration `env:"PRESENCE_CLOSE_WINDOW" envDefault:"180s"`
	SweepInterval  time.Duration `env:"PRESENCE_SWEEP_INTERVAL" envDefault:"10s"`
	TombstoneTTL   time.Duration `env:"PRESENCE_TOMBSTONE_TTL" envDefault:"60s"`
	StreamInterval time.Duration `env:"PRESENCE_STREAM_INTERVAL" envDefault:"5s"`
}

// DefaultConfig mirrors the environment defaults.
func DefaultConfig() Config {
	return Config{
		Server:         server.DefaultConfig(),
		NATS:           natsnotify.Config{ClientName: "online-status", SubjectPrefix: "presence.event", ReconnectWait: 2 * time.Second, DrainTimeout: 5 * time.Second},
		RateLimit:      ratelimiter.Config{RefillInterval: time.Minute},
		AppName:        "online-status",
		Env:            "development",
		LogLevel:       "info",
		AllowOrigins:   []string{"https://solar-system-82998.bubbleapps.io"},
		ActiveWindow:   30 * time.Second,
		CloseWindow:    180 * time.Second,
		SweepInterval:  10 * time.Second,
		TombstoneTTL:   60 * time.Second,
		StreamInterval: 5 * time.Second,
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == envProduction
}

// Validate checks the presence windows and, when enabled, the rate limit. A zero sweep interval disables the
// background sweep; /healthz still sweeps on demand.
func (c Config) Validate() error {
	switch {
	case c.ActiveWindow <= 0:
		return fmt.Errorf("%w: active window must be positive, got %s", ErrInvalidConfig, c.ActiveWindow)
	case c.CloseWindow < c.ActiveWindow:
		return fmt.Errorf("%w: close window %s is shorter than active window %s", ErrInvalidConfig, c.CloseWindow, c.ActiveWindow)
	case c.SweepInterval < 0:
		return fmt.Errorf("%w: sweep interval must not be negative, got %s", ErrInvalidConfig, c.SweepInterval)
	case c.TombstoneTTL <= 0:
		return fmt.Errorf("%w: tombstone ttl must be positive, got %s", ErrInvalidConfig, c.TombstoneTTL)
	case c.StreamInterval <= 0:
		return fmt.Errorf("%w: stream interval must be positive, got %s", ErrInvalidConfig, c.StreamInterval)
	}
	if c.RateLimit.Enabled() {
		if err := c.RateLimit.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
