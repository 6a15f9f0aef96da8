package broadcast

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrBroadcasterClosed = errors.New("broadcaster is closed")
	ErrSubscriberClosed  = errors.New("subscriber is closed")
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to every subscriber.
type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	Receive(ctx context.Context) <-chan Message[T]
	Close() error
}

// MemoryBroadcaster is an in-memory Broadcaster.
type MemoryBroadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*memorySubscriber[T]]struct{}
	bufferSize  int
	closed      bool
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages. A size below 1 is treated as 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*memorySubscriber[T]]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a subscriber that is removed once ctx is done.
// Subscribing to a closed broadcaster returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &memorySubscriber[T]{
		ch:   make(chan Message[T], b.bufferSize),
		done: make(chan struct{}),
	}
	sub.unsubscribe = func() { b.remove(sub) }

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub
	}
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub
}

// Broadcast delivers msg to every subscriber with room in its buffer.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			// slow subscriber, drop
		}
	}
	return nil
}

// Len returns the number of live subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber. It is safe to call more than once.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[*memorySubscriber[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(sub *memorySubscriber[T]) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
}

type memorySubscriber[T any] struct {
	ch          chan Message[T]
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

// Receive returns the message channel. ctx is accepted for interface
// symmetry; the subscription lifetime is bound to the Subscribe context.
func (s *memorySubscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

// Close unsubscribes and closes the receive channel. Closing twice returns
// ErrSubscriberClosed.
func (s *memorySubscriber[T]) Close() error {
	closed := false
	s.once.Do(func() {
		// Unregister first so no Broadcast can send on a closed channel.
		s.unsubscribe()
		close(s.done)
		close(s.ch)
		closed = true
	})
	if !closed {
		return ErrSubscriberClosed
	}
	return nil
}

// close is used by the broadcaster, which already dropped the subscriber.
func (s *memorySubscriber[T]) close() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}
