// Package task runs computations on their own goroutines, tied to ownership
// handles. [Spawn] starts a computation and returns a [Lifeline]; closing
// the lifeline cancels the computation's context, so work stops at its next
// suspension point. Closing the lifeline of a computation that already
// finished is a no-op.
//
// Every lifecycle transition (start, end, failure, cancel) is logged with
// the task name and a unique task id. Lifelines returned by services
// spawning several tasks can be combined with [Bundle]; closing the bundle
// closes every member.
package task

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
)

// State describes the lifecycle of a spawned computation.
type State int32

const (
	// Running means the computation has been spawned and not yet stopped.
	Running State = iota
	// Completed means the computation returned without error.
	Completed
	// Failed means the computation returned an error.
	Failed
	// Cancelled means the lifeline was closed while the computation was
	// still running.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Lifeline is the ownership handle of one or more spawned computations.
// Closing it cancels the work it represents; the computation observes the
// cancellation at its next suspension point. A Lifeline must be closed by
// its owner on every exit path, typically with defer.
type Lifeline struct {
	name    string
	id      string
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
	members []*Lifeline
	log     Logger
	logCfg  *LogConfig
}

// Spawn begins running run on its own goroutine and returns immediately.
// The returned lifeline owns the computation: closing it cancels run's
// context. run's error is a logged outcome, never control flow — a non-nil
// error marks the task Failed, nil marks it Completed.
func Spawn(name string, run func(ctx context.Context) error, opts ...Option) *Lifeline {
	cfg := parseOptions(opts)

	ctx, cancel := context.WithCancel(context.Background())
	l := &Lifeline{
		name:   name,
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    cfg.logger,
		logCfg: cfg.logConfig,
	}

	l.logf(l.logCfg.LevelStart)("TASK: Start", l.logArgs()...)

	go func() {
		defer close(l.done)
		err := run(ctx)
		switch {
		case err == nil:
			if l.state.CompareAndSwap(int32(Running), int32(Completed)) {
				l.logf(l.logCfg.LevelEnd)("TASK: End", l.logArgs()...)
			}
		case errors.Is(err, context.Canceled) && l.State() == Cancelled:
			// Cancelled through the lifeline; the cancel event is already
			// logged by Close.
		default:
			if l.state.CompareAndSwap(int32(Running), int32(Failed)) {
				l.logf(l.logCfg.LevelFailure)("TASK: Failure", append(l.logArgs(), "error", err)...)
			}
		}
	}()

	return l
}

// Close releases the lifeline. If the computation is still running it is
// cancelled at its next suspension point; if it already finished, Close does
// nothing. Close is idempotent and safe for concurrent use.
func (l *Lifeline) Close() error {
	if l.state.CompareAndSwap(int32(Running), int32(Cancelled)) {
		l.logf(l.logCfg.LevelCancel)("TASK: Cancel", l.logArgs()...)
	}
	if l.cancel != nil {
		l.cancel()
	}
	for _, m := range l.members {
		m.Close()
	}
	return nil
}

// Done is closed once the computation (or every member of a bundle) has
// stopped running.
func (l *Lifeline) Done() <-chan struct{} {
	return l.done
}

// State returns the lifeline's current lifecycle state.
func (l *Lifeline) State() State {
	return State(l.state.Load())
}

// Name returns the task name given at spawn.
func (l *Lifeline) Name() string {
	return l.name
}

// ID returns the unique id assigned at spawn.
func (l *Lifeline) ID() string {
	return l.id
}

func (l *Lifeline) logf(level LogLevel) func(msg string, args ...any) {
	return l.logCfg.logFunc(level, l.log)
}

func (l *Lifeline) logArgs() []any {
	args := []any{"task", l.name, "id", l.id}
	return append(args, l.logCfg.Args...)
}
