package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config describes the token bucket applied to every key.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"0"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"0"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1m"`
}

// Enabled reports whether the configuration limits anything.
// A zero capacity turns rate limiting off.
func (c Config) Enabled() bool {
	return c.Capacity > 0
}

func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.RefillRate <= 0:
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	case c.RefillInterval <= 0:
		return fmt.Errorf("%w: refill interval must be positive, got %s", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// refillTime is how long an empty bucket takes to become full.
func (c Config) refillTime() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals) * c.RefillInterval
}

// Result is the outcome of a single Allow call.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time

	allowed bool
	now     time.Time
}

func (r Result) Allowed() bool {
	return r.allowed
}

// RetryAfter is the wait until the next refill, zero for allowed requests.
func (r Result) RetryAfter() time.Duration {
	if r.allowed || !r.ResetAt.After(r.now) {
		return 0
	}
	return r.ResetAt.Sub(r.now)
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// Stats is a point-in-time view of the limiter.
type Stats struct {
	BucketsCreated int64 `json:"bucketsCreated"`
	BucketsRemoved int64 `json:"bucketsRemoved"`
	Rejected       int64 `json:"rejected"`
	ActiveBuckets  int   `json:"activeBuckets"`
	IsRunning      bool  `json:"isRunning"`
}

// Limiter is an in-memory token bucket limiter. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  Config

	now             func() time.Time
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	bucketsCreated atomic.Int64
	bucketsRemoved atomic.Int64
	rejected       atomic.Int64
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCleanupInterval sets how often idle buckets are dropped.
// Zero disables the background cleanup.
func WithCleanupInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		l.cleanupInterval = interval
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(l *Limiter) {
		if timeout > 0 {
			l.shutdownTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a limiter. Call Start or Run to enable background cleanup.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		buckets:         make(map[string]*bucket),
		config:          cfg,
		now:             time.Now,
		cleanupInterval: time.Minute,
		shutdownTimeout: 5 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow consumes one token for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key. A rejected request consumes nothing.
func (l *Limiter) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if n <= 0 || n > l.config.Capacity {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidTokenCount, n)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.config.Capacity, lastRefill: now}
		l.buckets[key] = b
		l.bucketsCreated.Add(1)
	}
	l.refill(b, now)
	b.lastAccess = now

	res := Result{
		Limit:   l.config.Capacity,
		ResetAt: b.lastRefill.Add(l.config.RefillInterval),
		now:     now,
	}
	if b.tokens >= n {
		b.tokens -= n
		res.allowed = true
	} else {
		l.rejected.Add(1)
	}
	res.Remaining = b.tokens

	return res, nil
}

// refill adds the tokens earned since the last refill. Whole intervals only,
// so partial progress carries over to the next call.
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < l.config.RefillInterval {
		return
	}

	intervals := int64(elapsed / l.config.RefillInterval)
	maxIntervals := int64(l.config.Capacity/l.config.RefillRate + 1)
	if intervals >= maxIntervals {
		b.tokens = l.config.Capacity
		b.lastRefill = now
		return
	}

	b.tokens = min(b.tokens+int(intervals)*l.config.RefillRate, l.config.Capacity)
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * l.config.RefillInterval)
}

// Reset forgets key, restoring its full capacity.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Cleanup drops buckets idle long enough to have refilled completely and
// returns how many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	idle := l.config.refillTime()

	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) >= idle {
			delete(l.buckets, key)
			removed++
		}
	}
	if removed > 0 {
		l.bucketsRemoved.Add(int64(removed))
	}
	return removed
}

// Start runs the cleanup loop until ctx is done or Stop is called.
func (l *Limiter) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	if l.cleanupInterval <= 0 {
		l.mu.Unlock()
		return ErrCleanupDisabled
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.mu.Unlock()

	l.running.Store(true)
	defer l.running.Store(false)

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.mu.Lock()
			if l.cancel == nil {
				// Stop is waiting
				l.mu.Unlock()
				continue
			}
			l.wg.Add(1)
			l.mu.Unlock()

			if n := l.Cleanup(); n > 0 {
				l.logger.DebugContext(ctx, "rate limit buckets removed", slog.Int("count", n))
			}
			l.wg.Done()
		}
	}
}

// Stop cancels the cleanup loop and waits for a running pass to finish.
func (l *Limiter) Stop() error {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}
	cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(l.shutdownTimeout):
		return fmt.Errorf("%w after %s", ErrStopTimeout, l.shutdownTimeout)
	}
}

// Run returns an errgroup-compatible function running the cleanup loop
// until ctx is canceled.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- l.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = l.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	active := len(l.buckets)
	l.mu.Unlock()

	return Stats{
		BucketsCreated: l.bucketsCreated.Load(),
		BucketsRemoved: l.bucketsRemoved.Load(),
		Rejected:       l.rejected.Load(),
		ActiveBuckets:  active,
		IsRunning:      l.running.Load(),
	}
}

// Healthcheck fails when cleanup is configured but not running.
func (l *Limiter) Healthcheck(context.Context) error {
	if l.cleanupInterval > 0 && !l.running.Load() {
		return errors.New("rate limiter cleanup is configured but not running")
	}
	return nil
}
