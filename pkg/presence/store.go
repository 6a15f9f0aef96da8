package presence

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// IgnoredTombstoned marks a ping that was accepted but dropped because its
// client left recently.
const IgnoredTombstoned = "tombstoned"

// session is the live state of one client (browser tab).
type session struct {
	uid          string
	path         string
	lastActivity time.Time
}

// Store holds per-client sessions and leave tombstones in memory.
// All methods are safe for concurrent use; mutations are serialized
// by a single lock and reads see both maps consistently.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	tombstones map[string]time.Time

	// Configuration
	now             func() time.Time
	activeWindow    time.Duration
	closeWindow     time.Duration
	sweepInterval   time.Duration
	tombstoneTTL    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	notifiers       []Notifier

	// Change ordering: seq is assigned under mu, delivered trails it.
	seq         uint64
	deliverMu   sync.Mutex
	deliverCond *sync.Cond
	delivered   uint64

	// Sweeper state
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability counters
	sessionsCreated atomic.Int64
	sessionsLeft    atomic.Int64
	sessionsExpired atomic.Int64
	pingsIgnored    atomic.Int64
}

// TouchResult describes the outcome of an accepted ping.
type TouchResult struct {
	// Ignored is IgnoredTombstoned when the ping was dropped, otherwise empty.
	Ignored string
	// Created reports whether the ping opened a new session.
	Created bool
}

// SweepResult counts what a sweep removed.
type SweepResult struct {
	Sessions   int
	Tombstones int
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	SessionsCreated int64 `json:"sessionsCreated"`
	SessionsLeft    int64 `json:"sessionsLeft"`
	SessionsExpired int64 `json:"sessionsExpired"`
	PingsIgnored    int64 `json:"pingsIgnored"`
	Sessions        int   `json:"sessions"`
	Tombstones      int   `json:"tombstones"`
	IsRunning       bool  `json:"isRunning"`
}

// NewStore creates an empty store. Call Start (or Run) to enable the
// background sweep.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:        make(map[string]*session),
		tombstones:      make(map[string]time.Time),
		now:             time.Now,
		activeWindow:    DefaultActiveWindow,
		closeWindow:     DefaultCloseWindow,
		sweepInterval:   DefaultSweepInterval,
		tombstoneTTL:    DefaultTombstoneTTL,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	s.deliverCond = sync.NewCond(&s.deliverMu)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Touch records a heartbeat for the event's client.
//
// A blank client identifier yields ErrInvalidClientID. A ping for a client
// whose tombstone has not expired is accepted but ignored. Otherwise the
// client's session is created or refreshed with the event's uid and path;
// the last ping wins.
func (s *Store) Touch(ctx context.Context, ev Event) (TouchResult, error) {
	clientID := NormalizeClientID(ev.ClientID)
	if clientID == "" {
		return TouchResult{}, ErrInvalidClientID
	}

	uid := NormalizeUserID(ev.UID)
	path := NormalizePath(ev.Path)

	s.mu.Lock()
	now := s.now()

	if expiry, ok := s.tombstones[clientID]; ok {
		if now.Before(expiry) {
			s.mu.Unlock()
			s.pingsIgnored.Add(1)
			return TouchResult{Ignored: IgnoredTombstoned}, nil
		}
		delete(s.tombstones, clientID)
	}

	var (
		changed bool
		kind    ChangeKind
		result  TouchResult
	)

	sess, ok := s.sessions[clientID]
	if !ok {
		s.sessions[clientID] = &session{uid: uid, path: path, lastActivity: now}
		changed, kind, result.Created = true, ChangeJoin, true
	} else {
		if sess.uid != uid || sess.path != path {
			changed, kind = true, ChangeMove
		}
		sess.uid = uid
		sess.path = path
		sess.lastActivity = now
	}

	var change Change
	if changed {
		change = s.nextChange(Change{Kind: kind, ClientID: clientID, UID: uid, Path: path, At: now})
	}
	s.mu.Unlock()

	if result.Created {
		s.sessionsCreated.Add(1)
	}
	if changed {
		s.deliver(ctx, change)
	}

	return result, nil
}

// Remove closes the event's client session, if any, and tombstones the
// client so that late pings cannot revive it. The tombstone is installed or
// refreshed even when no session existed. Remove reports whether a session
// was deleted; a blank client identifier deletes nothing.
func (s *Store) Remove(ctx context.Context, ev Event) bool {
	clientID := NormalizeClientID(ev.ClientID)
	if clientID == "" {
		return false
	}

	s.mu.Lock()
	now := s.now()
	sess, deleted := s.sessions[clientID]
	var change Change
	if deleted {
		delete(s.sessions, clientID)
		change = s.nextChange(Change{Kind: ChangeLeave, ClientID: clientID, UID: sess.uid, Path: sess.path, At: now})
	}
	s.tombstones[clientID] = now.Add(s.tombstoneTTL)
	s.mu.Unlock()

	if deleted {
		s.sessionsLeft.Add(1)
		s.deliver(ctx, change)
	}

	return deleted
}

// Sweep deletes sessions idle for at least the close window and tombstones
// that have expired. It is idempotent.
func (s *Store) Sweep(ctx context.Context) SweepResult {
	var (
		result  SweepResult
		expired []Change
	)

	s.mu.Lock()
	now := s.now()

	for clientID, sess := range s.sessions {
		if now.Sub(sess.lastActivity) >= s.closeWindow {
			delete(s.sessions, clientID)
			expired = append(expired, Change{
				Kind:     ChangeExpire,
				ClientID: clientID,
				UID:      sess.uid,
				Path:     sess.path,
				At:       now,
			})
		}
	}

	for clientID, expiry := range s.tombstones {
		if !now.Before(expiry) {
			delete(s.tombstones, clientID)
			result.Tombstones++
		}
	}

	slices.SortFunc(expired, func(a, b Change) int {
		return strings.Compare(a.ClientID, b.ClientID)
	})
	for i := range expired {
		expired[i] = s.nextChange(expired[i])
	}
	s.mu.Unlock()

	result.Sessions = len(expired)
	if result.Sessions > 0 {
		s.sessionsExpired.Add(int64(result.Sessions))
		s.deliver(ctx, expired...)
	}

	return result
}

// Len returns the number of stored sessions, including expired ones that
// have not been swept yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats returns current store statistics. Safe to call at any time.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	sessions := len(s.sessions)
	tombstones := len(s.tombstones)
	s.mu.RUnlock()

	return Stats{
		SessionsCreated: s.sessionsCreated.Load(),
		SessionsLeft:    s.sessionsLeft.Load(),
		SessionsExpired: s.sessionsExpired.Load(),
		PingsIgnored:    s.pingsIgnored.Load(),
		Sessions:        sessions,
		Tombstones:      tombstones,
		IsRunning:       s.running.Load(),
	}
}

// nextChange stamps c with the next sequence number. Callers hold s.mu.
func (s *Store) nextChange(c Change) Change {
	s.seq++
	c.Seq = s.seq
	return c
}

// deliver hands changes to the notifiers once every change with a lower
// sequence number has been delivered. changes carry consecutive sequence
// numbers taken in one critical section.
func (s *Store) deliver(ctx context.Context, changes ...Change) {
	first, last := changes[0].Seq, changes[len(changes)-1].Seq

	s.deliverMu.Lock()
	for s.delivered != first-1 {
		s.deliverCond.Wait()
	}
	s.deliverMu.Unlock()

	defer func() {
		s.deliverMu.Lock()
		s.delivered = last
		s.deliverCond.Broadcast()
		s.deliverMu.Unlock()
	}()

	for _, c := range changes {
		for _, n := range s.notifiers {
			n.Notify(ctx, c)
		}
	}
}
