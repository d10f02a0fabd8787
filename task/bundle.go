package task

import "github.com/google/uuid"

// Bundle combines several lifelines into one composite handle. Closing the
// bundle requests every member to stop, with no ordering guarantee between
// them. The bundle's Done channel closes once every member has stopped.
// Lifecycle events are logged like any spawned task.
func Bundle(name string, members []*Lifeline, opts ...Option) *Lifeline {
	cfg := parseOptions(opts)

	l := &Lifeline{
		name:    name,
		id:      uuid.NewString(),
		done:    make(chan struct{}),
		members: members,
		log:     cfg.logger,
		logCfg:  cfg.logConfig,
	}

	l.logf(l.logCfg.LevelStart)("TASK: Start", l.logArgs()...)

	go func() {
		defer close(l.done)
		for _, m := range members {
			<-m.Done()
		}
		if l.state.CompareAndSwap(int32(Running), int32(Completed)) {
			l.logf(l.logCfg.LevelEnd)("TASK: End", l.logArgs()...)
		}
	}()

	return l
}
