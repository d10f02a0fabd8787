package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Broadcast returns a fan-out channel. Every subscriber observes every value
// sent after it subscribed. Both halves are clone policy: senders are
// refcounted handles, receivers are independent subscriptions created
// through the retained sender.
//
// Each subscriber has its own buffer. A subscriber that falls behind loses
// the oldest buffered value; the number of dropped values is reported by the
// receiver's Lagged method.
func Broadcast[T any]() Channel[T] {
	return broadcast[T]{}
}

type broadcast[T any] struct{}

func (broadcast[T]) Pair(capacity int) (Sender[T], Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}
	core := &broadcastCore[T]{capacity: capacity, senders: 1}
	return &broadcastSender[T]{core: core}, core.subscribe()
}

func (broadcast[T]) DefaultCapacity() int { return 16 }

func (broadcast[T]) ResolveTx(cur Sender[T]) (out, keep Sender[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur.(*broadcastSender[T]).clone(), cur, true
}

func (broadcast[T]) ResolveRx(cur Receiver[T], tx Sender[T]) (out, keep Receiver[T], ok bool) {
	// The pair's original subscription goes to the first caller; later
	// callers get a fresh subscription through the sender.
	if cur != nil {
		return cur, nil, true
	}
	if tx != nil {
		return tx.(*broadcastSender[T]).core.subscribe(), nil, true
	}
	return nil, nil, false
}

type broadcastCore[T any] struct {
	mu       sync.Mutex
	subs     []*broadcastReceiver[T]
	capacity int
	senders  int
	closed   bool
}

func (c *broadcastCore[T]) subscribe() *broadcastReceiver[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &broadcastReceiver[T]{core: c, ch: make(chan T, c.capacity)}
	if c.closed {
		close(sub.ch)
		return sub
	}
	c.subs = append(c.subs, sub)
	return sub
}

func (c *broadcastCore[T]) unsubscribe(sub *broadcastReceiver[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			sub.closeCh()
			return
		}
	}
}

type broadcastSender[T any] struct {
	core *broadcastCore[T]
	once sync.Once
}

func (s *broadcastSender[T]) clone() *broadcastSender[T] {
	s.core.mu.Lock()
	s.core.senders++
	s.core.mu.Unlock()
	return &broadcastSender[T]{core: s.core}
}

func (s *broadcastSender[T]) Send(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	if s.core.closed {
		return ErrClosed
	}
	for _, sub := range s.core.subs {
		select {
		case sub.ch <- value:
		default:
			// Buffer full: drop the oldest value so the send never blocks.
			select {
			case <-sub.ch:
				sub.lagged.Add(1)
			default:
			}
			select {
			case sub.ch <- value:
			default:
			}
		}
	}
	return nil
}

func (s *broadcastSender[T]) Close() error {
	s.once.Do(func() {
		s.core.mu.Lock()
		defer s.core.mu.Unlock()

		s.core.senders--
		if s.core.senders == 0 {
			s.core.closed = true
			for _, sub := range s.core.subs {
				sub.closeCh()
			}
			s.core.subs = nil
		}
	})
	return nil
}

type broadcastReceiver[T any] struct {
	core   *broadcastCore[T]
	ch     chan T
	chOnce sync.Once
	lagged atomic.Int64
	closed atomic.Bool
}

func (r *broadcastReceiver[T]) closeCh() {
	r.chOnce.Do(func() { close(r.ch) })
}

func (r *broadcastReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	default:
	}
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	}
}

func (r *broadcastReceiver[T]) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.core.unsubscribe(r)
	}
	return nil
}

// Lagged reports how many values this subscriber has lost to buffer
// overflow.
func (r *broadcastReceiver[T]) Lagged() int64 {
	return r.lagged.Load()
}
