// Package config loads typed configuration from environment variables using
// caarlos0/env struct tags. A .env file in the working directory is read
// once on first use via godotenv; real environment variables win over it.
//
// Basic usage:
//
//	type PresenceConfig struct {
//		ActiveWindow time.Duration `env:"PRESENCE_ACTIVE_WINDOW" envDefault:"30s"`
//		CloseWindow  time.Duration `env:"PRESENCE_CLOSE_WINDOW" envDefault:"180s"`
//	}
//
//	var cfg PresenceConfig
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is parsed once per process; later Load calls for
// the same type return the cached value. Parse skips both the cache and the
// .env file, which is what tests using t.Setenv want.
package config
