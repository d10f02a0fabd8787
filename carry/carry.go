// Package carry bridges sibling buses. A carrier resolves endpoints from a
// parent bus and a local bus and spawns forwarding tasks between them, so
// the services of one bus can exchange messages with another bus without
// either depending on the other's full message set.
//
// Carriers follow the same take/clone rules as any service, and resolve
// every endpoint before any forwarding task starts: a partially wired
// forwarder is never left running. The returned lifeline governs the edge —
// closing it stops all forwarding, leaving both buses intact.
package carry

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxsml/gobus"
	"github.com/fxsml/gobus/channel"
	"github.com/fxsml/gobus/task"
)

// ErrResolution indicates a carrier could not resolve one of the endpoints
// it needs; construction of the edge fails entirely.
var ErrResolution = errors.New("carry: endpoint resolution failed")

// Carrier constructs the forwarding tasks of one edge from a parent bus to
// a local bus.
type Carrier interface {
	Carry(parent, local *gobus.Bus) (*task.Lifeline, error)
}

// Relay returns a carrier that forwards every T from the parent bus to the
// local bus unchanged.
func Relay[T any](name string) Carrier {
	return Filter(name, func(v T) (T, bool) { return v, true })
}

// Map returns a carrier that forwards every A from the parent bus as fn(A)
// on the local bus.
func Map[A, B any](name string, fn func(A) B) Carrier {
	return Filter(name, func(v A) (B, bool) { return fn(v), true })
}

// Filter returns a carrier that translates A values from the parent bus
// into B values on the local bus, dropping those for which fn reports
// false.
func Filter[A, B any](name string, fn func(A) (B, bool)) Carrier {
	return filterCarrier[A, B]{name: name, fn: fn}
}

type filterCarrier[A, B any] struct {
	name string
	fn   func(A) (B, bool)
}

func (c filterCarrier[A, B]) Carry(parent, local *gobus.Bus) (*task.Lifeline, error) {
	rx, err := gobus.Rx[A](parent)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResolution, c.name, err)
	}
	tx, err := gobus.Tx[B](local)
	if err != nil {
		rx.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrResolution, c.name, err)
	}

	return task.Spawn(c.name, func(ctx context.Context) error {
		defer rx.Close()
		defer tx.Close()
		for {
			v, err := rx.Recv(ctx)
			if err != nil {
				if errors.Is(err, channel.ErrClosed) {
					return nil
				}
				return err
			}
			out, ok := c.fn(v)
			if !ok {
				continue
			}
			if err := tx.Send(ctx, out); err != nil {
				if errors.Is(err, channel.ErrClosed) {
					return nil
				}
				return err
			}
		}
	}), nil
}
