package gobus

import (
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/fxsml/gobus/channel"
)

// Bus is a process-local, type-indexed container of channel endpoints and
// resources. A bus carries at most one sender and one receiver per bound
// message type, and at most one value per resource type. Channel pairs are
// constructed lazily, on the first resolution of either half; a bus with
// nothing resolved allocates no channels.
//
// All methods and package-level accessors are safe for concurrent use. The
// slot transition from empty to constructed to taken is atomic with respect
// to lookups, so racing first resolutions observe a single pair and a
// take-policy half is delivered to exactly one caller.
type Bus struct {
	name string
	log  Logger

	mu        sync.Mutex
	channels  map[reflect.Type]*channelSlot
	resources map[reflect.Type]*resourceSlot
}

// New creates an empty bus. Nothing is allocated until a channel half or
// resource is first resolved.
func New(opts ...BusOption) *Bus {
	b := &Bus{
		name:      "bus",
		channels:  map[reflect.Type]*channelSlot{},
		resources: map[reflect.Type]*resourceSlot{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = defaultLogger()
	}
	return b
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithName sets the bus name used in errors and log messages.
func WithName(name string) BusOption {
	return func(b *Bus) {
		b.name = name
	}
}

// WithLogger overrides the logger used for slot linking diagnostics.
func WithLogger(l Logger) BusOption {
	return func(b *Bus) {
		b.log = l
	}
}

// Name returns the bus name.
func (b *Bus) Name() string {
	return b.name
}

// Close releases every endpoint and resource the bus still holds. Endpoints
// already resolved by services stay valid; closing the retained halves is
// what lets their peers observe channel disconnection once the services
// release their own endpoints. Subsequent resolutions fail with
// ErrAlreadyTaken.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.channels {
		if c, ok := s.tx.(io.Closer); ok {
			c.Close()
		}
		if c, ok := s.rx.(io.Closer); ok {
			c.Close()
		}
		s.tx, s.rx = nil, nil
		s.linked = true
	}
	for _, s := range b.resources {
		if c, ok := s.value.(io.Closer); ok {
			c.Close()
		}
		s.value = nil
		s.has = false
	}
	return nil
}

// channelSlot is the type-erased storage for one message type's pair. The
// resolve closures capture the typed channel factory at bind time; lookups
// downcast through them, so a slot can only ever hold its own types.
type channelSlot struct {
	name       string
	capacity   int
	defaultCap int
	linked     bool
	tx         any
	rx         any
	link       func(capacity int) (tx, rx any)
	resolveTx  func(cur any) (out, keep any, ok bool)
	resolveRx  func(cur, tx any) (out, keep any, ok bool)
}

// Bind declares that the bus carries Msg over channels constructed by ch.
// Binding allocates nothing; the pair is constructed on first resolution.
// Binding the same message type twice fails with ErrAlreadyBound.
func Bind[Msg any](b *Bus, ch channel.Channel[Msg]) error {
	key := typeOf[Msg]()
	name := typeName[Msg]()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.channels[key]; ok {
		return fmt.Errorf("%w: %s <%s>", ErrAlreadyBound, b.name, name)
	}
	b.channels[key] = &channelSlot{
		name:       name,
		defaultCap: ch.DefaultCapacity(),
		link: func(capacity int) (any, any) {
			tx, rx := ch.Pair(capacity)
			return tx, rx
		},
		resolveTx: func(cur any) (any, any, bool) {
			var tx channel.Sender[Msg]
			if cur != nil {
				tx = cur.(channel.Sender[Msg])
			}
			// Sender is an interface, so a nil endpoint converts to nil any.
			out, keep, ok := ch.ResolveTx(tx)
			return out, keep, ok
		},
		resolveRx: func(cur, tx any) (any, any, bool) {
			var rx channel.Receiver[Msg]
			if cur != nil {
				rx = cur.(channel.Receiver[Msg])
			}
			var sender channel.Sender[Msg]
			if tx != nil {
				sender = tx.(channel.Sender[Msg])
			}
			out, keep, ok := ch.ResolveRx(rx, sender)
			return out, keep, ok
		},
	}
	return nil
}

// Capacity overrides the queue capacity used when Msg's channel pair is
// constructed. It fails with ErrAlreadyLinked once the pair exists, because
// the override could no longer take effect.
func Capacity[Msg any](b *Bus, capacity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.channels[typeOf[Msg]()]
	if !ok {
		return fmt.Errorf("%w: %s <%s>", ErrNotBound, b.name, typeName[Msg]())
	}
	if s.linked {
		return fmt.Errorf("%w: %s <%s>", ErrAlreadyLinked, b.name, s.name)
	}
	s.capacity = capacity
	return nil
}

// Tx resolves the sender half for Msg. Clone-policy senders succeed on every
// call; a take-policy sender succeeds once and then fails with
// ErrAlreadyTaken.
func Tx[Msg any](b *Bus) (channel.Sender[Msg], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.channels[typeOf[Msg]()]
	if !ok {
		return nil, newTakeError(ErrNotBound, b.name, typeName[Msg](), SideTx)
	}
	b.linkLocked(s)

	out, keep, ok := s.resolveTx(s.tx)
	if !ok {
		return nil, newTakeError(ErrAlreadyTaken, b.name, s.name, SideTx)
	}
	s.tx = keep
	return out.(channel.Sender[Msg]), nil
}

// Rx resolves the receiver half for Msg. Receivers of single-consumer
// channels are take policy, so exhaustion after the owning service has
// started is the expected steady state.
func Rx[Msg any](b *Bus) (channel.Receiver[Msg], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.channels[typeOf[Msg]()]
	if !ok {
		return nil, newTakeError(ErrNotBound, b.name, typeName[Msg](), SideRx)
	}
	b.linkLocked(s)

	out, keep, ok := s.resolveRx(s.rx, s.tx)
	if !ok {
		return nil, newTakeError(ErrAlreadyTaken, b.name, s.name, SideRx)
	}
	s.rx = keep
	return out.(channel.Receiver[Msg]), nil
}

// StoreTx links an externally constructed sender for Msg, leaving the
// receiver side empty. Fails with ErrAlreadyLinked once the pair exists.
func StoreTx[Msg any](b *Bus, tx channel.Sender[Msg]) error {
	return storeHalves[Msg](b, tx, nil)
}

// StoreRx links an externally constructed receiver for Msg, leaving the
// sender side empty. Fails with ErrAlreadyLinked once the pair exists.
func StoreRx[Msg any](b *Bus, rx channel.Receiver[Msg]) error {
	return storeHalves[Msg](b, nil, rx)
}

// StorePair links an externally constructed pair for Msg. Useful to bridge
// a bus to channels owned by other code. Fails with ErrAlreadyLinked once
// the pair exists.
func StorePair[Msg any](b *Bus, tx channel.Sender[Msg], rx channel.Receiver[Msg]) error {
	return storeHalves[Msg](b, tx, rx)
}

func storeHalves[Msg any](b *Bus, tx channel.Sender[Msg], rx channel.Receiver[Msg]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.channels[typeOf[Msg]()]
	if !ok {
		return fmt.Errorf("%w: %s <%s>", ErrNotBound, b.name, typeName[Msg]())
	}
	if s.linked {
		return fmt.Errorf("%w: %s <%s>", ErrAlreadyLinked, b.name, s.name)
	}
	if tx != nil {
		s.tx = tx
	}
	if rx != nil {
		s.rx = rx
	}
	s.linked = true
	b.log.Debug("channel stored", "bus", b.name, "message", s.name)
	return nil
}

// linkLocked constructs the pair exactly once. Callers hold b.mu.
func (b *Bus) linkLocked(s *channelSlot) {
	if s.linked {
		return
	}
	capacity := s.capacity
	if capacity <= 0 {
		capacity = s.defaultCap
	}
	s.tx, s.rx = s.link(capacity)
	s.linked = true
	b.log.Debug("channel linked", "bus", b.name, "message", s.name)
}
