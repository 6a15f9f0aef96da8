package presence

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Presence is the aggregated view of one user across all of their clients.
type Presence struct {
	UID   string   `json:"uid"`
	Paths []string `json:"paths"`
}

// Summary partitions live users into active and idle buckets.
type Summary struct {
	Active []Presence `json:"active"`
	Idle   []Presence `json:"idle"`
}

// SessionInfo is the raw state of one client session.
type SessionInfo struct {
	ClientID       string `json:"clientId"`
	UID            string `json:"uid"`
	Path           string `json:"path"`
	LastActivityMs int64  `json:"lastActivityMs"`
}

// TombstoneInfo is the raw state of one leave tombstone.
type TombstoneInfo struct {
	ClientID  string `json:"clientId"`
	ExpiresMs int64  `json:"expiresMs"`
}

// Snapshot is a point-in-time dump of the store contents.
type Snapshot struct {
	Size       int             `json:"size"`
	Sessions   []SessionInfo   `json:"sessions"`
	Tombstones []TombstoneInfo `json:"tombstones"`
}

// Summarize groups live sessions by user. Sessions past the close window
// are left out even if they have not been swept yet. A user is active when
// their most recent activity across all clients is within the active
// window, idle otherwise. Paths are distinct and sorted; both buckets are
// sorted by uid.
func (s *Store) Summarize() Summary {
	type aggregate struct {
		latest time.Time
		paths  map[string]struct{}
	}

	s.mu.RLock()
	now := s.now()
	users := make(map[string]*aggregate)
	for _, sess := range s.sessions {
		if now.Sub(sess.lastActivity) >= s.closeWindow {
			continue
		}

		agg, ok := users[sess.uid]
		if !ok {
			agg = &aggregate{latest: sess.lastActivity, paths: make(map[string]struct{})}
			users[sess.uid] = agg
		}
		if sess.lastActivity.After(agg.latest) {
			agg.latest = sess.lastActivity
		}
		agg.paths[sess.path] = struct{}{}
	}
	s.mu.RUnlock()

	summary := Summary{
		Active: []Presence{},
		Idle:   []Presence{},
	}

	for uid, agg := range users {
		p := Presence{UID: uid, Paths: slices.Sorted(maps.Keys(agg.paths))}
		if now.Sub(agg.latest) < s.activeWindow {
			summary.Active = append(summary.Active, p)
		} else {
			summary.Idle = append(summary.Idle, p)
		}
	}

	byUID := func(a, b Presence) int { return strings.Compare(a.UID, b.UID) }
	slices.SortFunc(summary.Active, byUID)
	slices.SortFunc(summary.Idle, byUID)

	return summary
}

// Snapshot dumps sessions and tombstones sorted by client identifier.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Size:       len(s.sessions),
		Sessions:   make([]SessionInfo, 0, len(s.sessions)),
		Tombstones: make([]TombstoneInfo, 0, len(s.tombstones)),
	}
	for clientID, sess := range s.sessions {
		snap.Sessions = append(snap.Sessions, SessionInfo{
			ClientID:       clientID,
			UID:            sess.uid,
			Path:           sess.path,
			LastActivityMs: sess.lastActivity.UnixMilli(),
		})
	}
	for clientID, expiry := range s.tombstones {
		snap.Tombstones = append(snap.Tombstones, TombstoneInfo{
			ClientID:  clientID,
			ExpiresMs: expiry.UnixMilli(),
		})
	}
	s.mu.RUnlock()

	slices.SortFunc(snap.Sessions, func(a, b SessionInfo) int {
		return strings.Compare(a.ClientID, b.ClientID)
	})
	slices.SortFunc(snap.Tombstones, func(a, b TombstoneInfo) int {
		return strings.Compare(a.ClientID, b.ClientID)
	})

	return snap
}
