package gobus

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyTaken indicates a take-policy endpoint or resource was
	// requested a second time. The first caller owns it; retrying can never
	// succeed.
	ErrAlreadyTaken = errors.New("gobus: already taken")
	// ErrNotBound indicates the bus carries no channel for the requested
	// message type.
	ErrNotBound = errors.New("gobus: message not bound")
	// ErrAlreadyBound indicates Bind was called twice for a message type.
	ErrAlreadyBound = errors.New("gobus: message already bound")
	// ErrAlreadyLinked indicates the channel pair already exists, so the
	// requested operation (capacity override, storing endpoints) would have
	// no effect.
	ErrAlreadyLinked = errors.New("gobus: channel already linked")
	// ErrUninitialized indicates the requested resource was never stored.
	ErrUninitialized = errors.New("gobus: resource uninitialized")
)

// Side identifies a channel half in errors.
type Side string

const (
	// SideTx is the sender half.
	SideTx Side = "tx"
	// SideRx is the receiver half.
	SideRx Side = "rx"
)

// TakeError reports a failed channel endpoint resolution. It wraps one of
// the package sentinels and identifies the bus, message type and endpoint
// side involved.
type TakeError struct {
	Bus     string
	Message string
	Side    Side
	err     error
}

func (e *TakeError) Error() string {
	return fmt.Sprintf("%s: %s <%s/%s>", e.err, e.Bus, e.Message, e.Side)
}

func (e *TakeError) Unwrap() error {
	return e.err
}

func newTakeError(err error, bus, message string, side Side) *TakeError {
	return &TakeError{Bus: bus, Message: message, Side: side, err: err}
}

// ResourceError reports a failed resource resolution. It wraps one of the
// package sentinels and identifies the bus and resource type involved.
type ResourceError struct {
	Bus      string
	Resource string
	err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %s <%s>", e.err, e.Bus, e.Resource)
}

func (e *ResourceError) Unwrap() error {
	return e.err
}

func newResourceError(err error, bus, resource string) *ResourceError {
	return &ResourceError{Bus: bus, Resource: resource, err: err}
}
