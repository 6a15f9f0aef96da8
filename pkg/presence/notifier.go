package presence

import (
	"context"
	"time"
)

// ChangeKind classifies a presence change.
type ChangeKind string

const (
	ChangeJoin   ChangeKind = "join"   // first accepted ping for a client
	ChangeMove   ChangeKind = "move"   // client switched path or uid
	ChangeLeave  ChangeKind = "leave"  // explicit leave removed a session
	ChangeExpire ChangeKind = "expire" // sweep reaped an idle session
)

// Change describes a session transition. Seq numbers the changes of one
// store from 1 in the order the store applied them.
type Change struct {
	Seq      uint64     `json:"seq"`
	Kind     ChangeKind `json:"kind"`
	ClientID string     `json:"clientId"`
	UID      string     `json:"uid"`
	Path     string     `json:"path"`
	At       time.Time  `json:"at"`
}

// Notifier receives session transitions. Notify is called after the store
// lock is released, one change at a time and in Seq order across all
// operations: a change is not delivered until every earlier one has been.
// A Notifier must not mutate the store it is attached to.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, c Change)

// Notify calls f(ctx, c).
func (f NotifierFunc) Notify(ctx context.Context, c Change) {
	f(ctx, c)
}
