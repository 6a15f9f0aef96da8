package presence

import (
	"log/slog"
	"time"
)

// Default timing parameters.
const (
	DefaultActiveWindow    = 30 * time.Second
	DefaultCloseWindow     = 180 * time.Second
	DefaultSweepInterval   = 10 * time.Second
	DefaultTombstoneTTL    = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActiveWindow sets how recent the last activity must be for a user to
// count as active rather than idle.
func WithActiveWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.activeWindow = d
		}
	}
}

// WithCloseWindow sets the inactivity period after which a session expires.
func WithCloseWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.closeWindow = d
		}
	}
}

// WithSweepInterval sets the period of the background sweep.
// Set to 0 to disable it; Start then returns ErrSweepDisabled.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepInterval = d
	}
}

// WithTombstoneTTL sets how long a left client stays suppressed.
func WithTombstoneTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.tombstoneTTL = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets the logger for sweeper and lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier registers a receiver for session transitions. Receivers are
// called in registration order; nil is ignored.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}
