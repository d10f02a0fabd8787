package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Oneshot returns a channel that delivers a single value to a single
// consumer. Both halves are take policy. Send succeeds at most once; Recv
// returns the value at most once, and ErrClosed if the sender is closed
// without sending.
func Oneshot[T any]() Channel[T] {
	return oneshot[T]{}
}

type oneshot[T any] struct{}

func (oneshot[T]) Pair(capacity int) (Sender[T], Receiver[T]) {
	core := &oneshotCore[T]{
		ch:         make(chan T, 1),
		senderGone: make(chan struct{}),
	}
	return &oneshotSender[T]{core: core}, &oneshotReceiver[T]{core: core}
}

func (oneshot[T]) DefaultCapacity() int { return 1 }

func (oneshot[T]) ResolveTx(cur Sender[T]) (out, keep Sender[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur, nil, true
}

func (oneshot[T]) ResolveRx(cur Receiver[T], tx Sender[T]) (out, keep Receiver[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur, nil, true
}

type oneshotCore[T any] struct {
	ch         chan T
	sent       atomic.Bool
	consumed   atomic.Bool
	senderOnce sync.Once
	senderGone chan struct{}
}

type oneshotSender[T any] struct {
	core *oneshotCore[T]
}

func (s *oneshotSender[T]) Send(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.core.sent.CompareAndSwap(false, true) {
		return ErrClosed
	}
	s.core.ch <- value // buffered, never blocks
	return nil
}

func (s *oneshotSender[T]) Close() error {
	s.core.senderOnce.Do(func() { close(s.core.senderGone) })
	return nil
}

type oneshotReceiver[T any] struct {
	core *oneshotCore[T]
}

func (r *oneshotReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if r.core.consumed.Load() {
		return zero, ErrClosed
	}

	select {
	case v := <-r.core.ch:
		r.core.consumed.Store(true)
		return v, nil
	default:
	}
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case v := <-r.core.ch:
		r.core.consumed.Store(true)
		return v, nil
	case <-r.core.senderGone:
		select {
		case v := <-r.core.ch:
			r.core.consumed.Store(true)
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}

func (r *oneshotReceiver[T]) Close() error { return nil }
