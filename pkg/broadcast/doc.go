// Package broadcast is a small generic fan-out for in-process subscribers.
//
// A MemoryBroadcaster delivers every message to every live subscriber
// without blocking: when a subscriber's buffer is full the message is
// dropped for that subscriber only, so one slow reader never stalls the
// sender or the others.
//
//	b := broadcast.NewMemoryBroadcaster[presence.Change](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx) // removed when ctx is done
//	defer sub.Close()
//
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			handle(msg.Data)
//		}
//	}()
//
//	_ = b.Broadcast(ctx, broadcast.Message[presence.Change]{Data: change})
//
// Receive channels are closed when the subscriber is closed, its context
// is done, or the broadcaster is closed. Broadcasting after Close returns
// ErrBroadcasterClosed.
package broadcast
