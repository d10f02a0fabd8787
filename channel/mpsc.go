package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mpsc returns a multi-producer, single-consumer channel. The sender half is
// clone policy (each resolution yields a new refcounted handle), the
// receiver half is take policy. The receiver observes ErrClosed after every
// sender handle has been closed and the queue is drained.
func Mpsc[T any]() Channel[T] {
	return mpsc[T]{}
}

type mpsc[T any] struct{}

func (mpsc[T]) Pair(capacity int) (Sender[T], Receiver[T]) {
	core := &mpscCore[T]{
		ch:          make(chan T, capacity),
		sendersGone: make(chan struct{}),
		recvGone:    make(chan struct{}),
	}
	core.senders.Store(1)
	return &mpscSender[T]{core: core}, &mpscReceiver[T]{core: core}
}

func (mpsc[T]) DefaultCapacity() int { return 16 }

func (mpsc[T]) ResolveTx(cur Sender[T]) (out, keep Sender[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur.(*mpscSender[T]).clone(), cur, true
}

func (mpsc[T]) ResolveRx(cur Receiver[T], tx Sender[T]) (out, keep Receiver[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur, nil, true
}

type mpscCore[T any] struct {
	ch          chan T
	senders     atomic.Int64
	sendersOnce sync.Once
	sendersGone chan struct{}
	recvOnce    sync.Once
	recvGone    chan struct{}
}

type mpscSender[T any] struct {
	core *mpscCore[T]
	once sync.Once
}

func (s *mpscSender[T]) clone() *mpscSender[T] {
	s.core.senders.Add(1)
	return &mpscSender[T]{core: s.core}
}

func (s *mpscSender[T]) Send(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.core.recvGone:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.core.recvGone:
		return ErrClosed
	case s.core.ch <- value:
		return nil
	}
}

func (s *mpscSender[T]) Close() error {
	s.once.Do(func() {
		if s.core.senders.Add(-1) == 0 {
			s.core.sendersOnce.Do(func() { close(s.core.sendersGone) })
		}
	})
	return nil
}

type mpscReceiver[T any] struct {
	core *mpscCore[T]
	once sync.Once
}

func (r *mpscReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// Queued values are delivered even after the senders are gone.
	select {
	case v := <-r.core.ch:
		return v, nil
	default:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case v := <-r.core.ch:
		return v, nil
	case <-r.core.recvGone:
		return zero, ErrClosed
	case <-r.core.sendersGone:
		select {
		case v := <-r.core.ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}

func (r *mpscReceiver[T]) Close() error {
	r.once.Do(func() { close(r.core.recvGone) })
	return nil
}
