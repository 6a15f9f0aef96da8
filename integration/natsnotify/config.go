package natsnotify

import "time"

// Config holds the NATS connection settings. An empty URL disables
// change notifications.
type Config struct {
	URL           string        `env:"NATS_URL"`
	User          string        `env:"NATS_USER"`
	Password      string        `env:"NATS_PASS"`
	ClientName    string        `env:"NATS_CLIENT_NAME" envDefault:"online-status"`
	SubjectPrefix string        `env:"NATS_SUBJECT_PREFIX" envDefault:"presence.event"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	DrainTimeout  time.Duration `env:"NATS_DRAIN_TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether a NATS URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}
