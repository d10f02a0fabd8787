package task_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fxsml/gobus/task"
)

// captureLogger records every lifecycle message for assertions.
type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *captureLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *captureLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if m == msg {
			n++
		}
	}
	return n
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *captureLogger) Error(msg string, args ...any) { l.record(msg) }

func waitDone(t *testing.T, l *task.Lifeline) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop")
	}
}

func TestSpawn_Completes(t *testing.T) {
	l := task.Spawn("noop", func(ctx context.Context) error {
		return nil
	})
	waitDone(t, l)

	if l.State() != task.Completed {
		t.Errorf("expected Completed, got %v", l.State())
	}

	// Closing a finished task changes nothing.
	l.Close()
	if l.State() != task.Completed {
		t.Errorf("expected Completed after close, got %v", l.State())
	}
}

func TestSpawn_CloseCancelsRunning(t *testing.T) {
	started := make(chan struct{})
	l := task.Spawn("blocker", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	l.Close()
	waitDone(t, l)

	if l.State() != task.Cancelled {
		t.Errorf("expected Cancelled, got %v", l.State())
	}
}

func TestSpawn_ErrorMarksFailed(t *testing.T) {
	boom := errors.New("boom")
	l := task.Spawn("failing", func(ctx context.Context) error {
		return boom
	})
	waitDone(t, l)

	if l.State() != task.Failed {
		t.Errorf("expected Failed, got %v", l.State())
	}
}

func TestSpawn_LogsLifecycleOnce(t *testing.T) {
	log := &captureLogger{}

	started := make(chan struct{})
	l := task.Spawn("logged", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, task.WithLogger(log))

	<-started
	// Concurrent closes must still produce a single cancel event.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Close()
		}()
	}
	wg.Wait()
	waitDone(t, l)

	if n := log.count("TASK: Start"); n != 1 {
		t.Errorf("expected 1 start event, got %d", n)
	}
	if n := log.count("TASK: Cancel"); n != 1 {
		t.Errorf("expected 1 cancel event, got %d", n)
	}
	if n := log.count("TASK: Failure"); n != 0 {
		t.Errorf("expected no failure event, got %d", n)
	}
	if n := log.count("TASK: End"); n != 0 {
		t.Errorf("expected no end event, got %d", n)
	}
}

func TestSpawn_DisabledLogging(t *testing.T) {
	log := &captureLogger{}

	l := task.Spawn("silent", func(ctx context.Context) error {
		return nil
	}, task.WithLogger(log), task.WithLogConfig(&task.LogConfig{Disabled: true}))
	waitDone(t, l)

	if len(log.messages) != 0 {
		t.Errorf("expected no log events, got %v", log.messages)
	}
}

func TestBundle_CloseStopsAllMembers(t *testing.T) {
	members := make([]*task.Lifeline, 3)
	for i := range members {
		members[i] = task.Spawn("member", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}

	bundle := task.Bundle("group", members)
	bundle.Close()
	waitDone(t, bundle)

	for i, m := range members {
		if m.State() != task.Cancelled {
			t.Errorf("member %d: expected Cancelled, got %v", i, m.State())
		}
	}
}

func TestBundle_LogsLifecycle(t *testing.T) {
	log := &captureLogger{}

	bundle := task.Bundle("group", []*task.Lifeline{
		task.Spawn("member", func(ctx context.Context) error { return nil }),
	}, task.WithLogger(log))
	waitDone(t, bundle)

	if n := log.count("TASK: Start"); n != 1 {
		t.Errorf("expected 1 start event, got %d", n)
	}
	if n := log.count("TASK: End"); n != 1 {
		t.Errorf("expected 1 end event, got %d", n)
	}

	// Closing the finished bundle adds no cancel event.
	bundle.Close()
	if n := log.count("TASK: Cancel"); n != 0 {
		t.Errorf("expected no cancel event, got %d", n)
	}
}

func TestBundle_DoneAfterMembersFinish(t *testing.T) {
	release := make(chan struct{})
	members := []*task.Lifeline{
		task.Spawn("waiter", func(ctx context.Context) error {
			<-release
			return nil
		}),
	}

	bundle := task.Bundle("group", members)
	select {
	case <-bundle.Done():
		t.Fatal("bundle done before member finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	waitDone(t, bundle)
	if bundle.State() != task.Completed {
		t.Errorf("expected Completed, got %v", bundle.State())
	}
}
