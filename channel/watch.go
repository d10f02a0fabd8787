package channel

import (
	"context"
	"sync"
)

// Watch returns a single-value update channel. The sender is take policy
// (exactly one writer), receivers are clone policy. A receiver observes the
// latest value: it returns immediately if a value it has not seen is set,
// and otherwise blocks for the next update. Intermediate values may be
// skipped.
func Watch[T any]() Channel[T] {
	return watch[T]{}
}

type watch[T any] struct{}

func (watch[T]) Pair(capacity int) (Sender[T], Receiver[T]) {
	core := &watchCore[T]{changed: make(chan struct{})}
	return &watchSender[T]{core: core}, &watchReceiver[T]{core: core}
}

func (watch[T]) DefaultCapacity() int { return 1 }

func (watch[T]) ResolveTx(cur Sender[T]) (out, keep Sender[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	return cur, nil, true
}

func (watch[T]) ResolveRx(cur Receiver[T], tx Sender[T]) (out, keep Receiver[T], ok bool) {
	if cur == nil {
		return nil, nil, false
	}
	dup := &watchReceiver[T]{core: cur.(*watchReceiver[T]).core}
	return dup, cur, true
}

type watchCore[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	changed chan struct{}
	closed  bool
}

type watchSender[T any] struct {
	core *watchCore[T]
	once sync.Once
}

func (s *watchSender[T]) Send(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	if s.core.closed {
		return ErrClosed
	}
	s.core.value = value
	s.core.version++
	close(s.core.changed)
	s.core.changed = make(chan struct{})
	return nil
}

func (s *watchSender[T]) Close() error {
	s.once.Do(func() {
		s.core.mu.Lock()
		defer s.core.mu.Unlock()

		s.core.closed = true
		close(s.core.changed)
	})
	return nil
}

type watchReceiver[T any] struct {
	core *watchCore[T]
	seen uint64
}

func (r *watchReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	for {
		r.core.mu.Lock()
		if r.core.version > r.seen {
			r.seen = r.core.version
			v := r.core.value
			r.core.mu.Unlock()
			return v, nil
		}
		if r.core.closed {
			r.core.mu.Unlock()
			return zero, ErrClosed
		}
		changed := r.core.changed
		r.core.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-changed:
		}
	}
}

func (r *watchReceiver[T]) Close() error { return nil }
