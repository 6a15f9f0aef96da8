package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Start runs the periodic sweep. It blocks until ctx is cancelled or Stop
// is called. Use Run for the errgroup pattern or call this in a goroutine.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	if s.sweepInterval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w, got %v", ErrSweepDisabled, s.sweepInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	s.logger.InfoContext(ctx, "presence sweeper started",
		slog.Duration("sweep_interval", s.sweepInterval),
		slog.Duration("close_window", s.closeWindow),
		slog.Duration("tombstone_ttl", s.tombstoneTTL))

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.Background(), "presence sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweepWithWait(ctx)
		}
	}
}

// Stop cancels the sweep loop and waits for an in-flight sweep to finish,
// bounded by the shutdown timeout.
func (s *Store) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}

	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.InfoContext(context.Background(), "presence sweeper stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(context.Background(), "presence sweeper shutdown timeout exceeded",
			slog.Duration("timeout", s.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrStopTimeout, s.shutdownTimeout)
	}
}

// Run provides errgroup compatibility. The returned function starts the
// sweeper and stops it when ctx is cancelled.
func (s *Store) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = s.Stop() // ErrNotStarted is expected if Start already returned
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

// Healthcheck reports an error when the sweep is configured but not running.
func (s *Store) Healthcheck(ctx context.Context) error {
	if s.sweepInterval > 0 && !s.running.Load() {
		return errors.New("presence sweeper is configured but not running")
	}
	return nil
}

// IsRunning reports whether the sweep loop is active.
func (s *Store) IsRunning() bool {
	return s.running.Load()
}

func (s *Store) sweepWithWait(ctx context.Context) {
	s.mu.RLock()
	if s.cancel == nil {
		s.mu.RUnlock()
		return
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	defer s.wg.Done()

	res := s.Sweep(ctx)
	if res.Sessions > 0 || res.Tombstones > 0 {
		s.logger.DebugContext(ctx, "presence sweep",
			slog.Int("sessions_removed", res.Sessions),
			slog.Int("tombstones_removed", res.Tombstones))
	}
}
