package gobus

// Cloner marks a resource type as clone policy: every resolution returns
// the duplicate produced by CloneResource, and the stored value stays on
// the bus. Resource types that do not implement Cloner are take policy and
// resolve exactly once. The policy is a property of the type, not of any
// individual call.
type Cloner interface {
	// CloneResource returns a duplicate of the resource. The returned value
	// must have the same type as the receiver.
	CloneResource() any
}

// Shared wraps a copyable value as a clone-policy resource. Useful for
// configuration structs that every service reads.
type Shared[T any] struct {
	Value T
}

// CloneResource implements Cloner by copying the wrapper.
func (s Shared[T]) CloneResource() any {
	return s
}

type resourceSlot struct {
	name  string
	value any
	has   bool
}

// StoreResource inserts or overwrites the resource of type Res. Last write
// wins, including after a take-policy resource has already been taken: the
// slot is simply re-filled. Typically called once, before any service
// spawns.
func StoreResource[Res any](b *Bus, value Res) {
	key := typeOf[Res]()
	name := typeName[Res]()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.resources[key] = &resourceSlot{name: name, value: value, has: true}
	b.log.Debug("resource stored", "bus", b.name, "resource", name)
}

// Resource resolves the resource of type Res. Clone-policy resources (see
// Cloner) succeed on every call; take-policy resources succeed once and
// then fail with ErrAlreadyTaken. A resource that was never stored fails
// with ErrUninitialized.
func Resource[Res any](b *Bus) (Res, error) {
	var zero Res
	key := typeOf[Res]()

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.resources[key]
	if !ok {
		return zero, newResourceError(ErrUninitialized, b.name, typeName[Res]())
	}
	if !s.has {
		return zero, newResourceError(ErrAlreadyTaken, b.name, s.name)
	}
	if c, ok := s.value.(Cloner); ok {
		return c.CloneResource().(Res), nil
	}
	v := s.value.(Res)
	s.value = nil
	s.has = false
	return v, nil
}
