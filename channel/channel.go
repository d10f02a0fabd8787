// Package channel provides the linked sender/receiver pairs carried by a bus.
//
// A Channel describes how a pair is constructed and how each half resolves
// from bus storage: a clone-policy half yields a duplicate on every
// resolution, a take-policy half yields the stored value exactly once.
// Four implementations are provided:
//
//   - [Mpsc] — multi-producer, single-consumer. Senders clone, the receiver
//     is taken.
//   - [Broadcast] — fan-out to independent subscribers. Both halves clone;
//     receivers are fresh subscriptions created through the retained sender.
//   - [Watch] — single-value updates. The sender is taken, receivers clone
//     and observe the latest value.
//   - [Oneshot] — a single value, delivered once. Both halves are taken.
package channel

import (
	"context"
	"errors"
)

// ErrClosed indicates the peer half of a channel is gone: every sender has
// been closed (for receivers), or the receiver has been closed (for senders).
var ErrClosed = errors.New("channel: closed")

// Sender is the sending half of a channel pair.
type Sender[T any] interface {
	// Send delivers a value, blocking until it is accepted, the context is
	// done, or the channel is closed.
	Send(ctx context.Context, value T) error
	// Close releases this sender handle. The channel reports ErrClosed to
	// the receiver once every sender handle has been closed.
	Close() error
}

// Receiver is the receiving half of a channel pair.
type Receiver[T any] interface {
	// Recv returns the next value, blocking until one is available, the
	// context is done, or the channel is closed and drained. A context that
	// is already cancelled wins over a ready value.
	Recv(ctx context.Context) (T, error)
	// Close releases this receiver handle.
	Close() error
}

// Channel constructs linked sender/receiver pairs and defines how each half
// resolves from bus storage. Implementations are stateless; all channel
// state lives in the pairs they construct.
//
// ResolveTx and ResolveRx implement the storage policy of each half. cur is
// the stored value, nil if already taken. On success, out is handed to the
// caller and keep is what remains in storage: a clone-policy half returns a
// duplicate and keeps the original, a take-policy half returns the original
// and keeps nil. ok is false when the half is exhausted.
type Channel[T any] interface {
	// Pair constructs a linked sender/receiver pair with the given queue
	// capacity.
	Pair(capacity int) (Sender[T], Receiver[T])
	// DefaultCapacity is the queue capacity used when none is configured.
	DefaultCapacity() int
	// ResolveTx resolves the sender half from storage.
	ResolveTx(cur Sender[T]) (out, keep Sender[T], ok bool)
	// ResolveRx resolves the receiver half from storage. tx is the stored
	// sender, which broadcast-style channels use to create subscriptions.
	ResolveRx(cur Receiver[T], tx Sender[T]) (out, keep Receiver[T], ok bool)
}
