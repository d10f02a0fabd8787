package channel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fxsml/gobus/channel"
)

func TestBroadcast_AllSubscribersReceive(t *testing.T) {
	ctx := context.Background()
	ch := channel.Broadcast[int]()
	tx, rx1 := ch.Pair(8)

	rx2, _, ok := ch.ResolveRx(nil, tx)
	if !ok {
		t.Fatal("expected subscription through sender to succeed")
	}

	for i := 1; i <= 3; i++ {
		if err := tx.Send(ctx, i); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for _, rx := range []channel.Receiver[int]{rx1, rx2} {
		for i := 1; i <= 3; i++ {
			v, err := rx.Recv(ctx)
			if err != nil {
				t.Fatalf("recv %d: %v", i, err)
			}
			if v != i {
				t.Errorf("expected %d, got %d", i, v)
			}
		}
	}
}

func TestBroadcast_CancelledContextBeatsBufferedValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tx, rx := channel.Broadcast[int]().Pair(4)

	if err := tx.Send(ctx, 1); err != nil {
		t.Fatalf("send: %v", err)
	}

	cancel()
	if _, err := rx.Recv(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBroadcast_LateSubscriberMissesEarlierValues(t *testing.T) {
	ctx := context.Background()
	ch := channel.Broadcast[int]()
	tx, _ := ch.Pair(8)

	if err := tx.Send(ctx, 1); err != nil {
		t.Fatalf("send: %v", err)
	}
	late, _, _ := ch.ResolveRx(nil, tx)
	if err := tx.Send(ctx, 2); err != nil {
		t.Fatalf("send: %v", err)
	}

	v, err := late.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if v != 2 {
		t.Errorf("expected only the value sent after subscribing, got %d", v)
	}
}

func TestBroadcast_SlowSubscriberLags(t *testing.T) {
	ctx := context.Background()
	tx, rx := channel.Broadcast[int]().Pair(1)

	for i := 1; i <= 3; i++ {
		if err := tx.Send(ctx, i); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	v, err := rx.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if v != 3 {
		t.Errorf("expected newest value 3, got %d", v)
	}
	lagger, ok := rx.(interface{ Lagged() int64 })
	if !ok {
		t.Fatal("receiver does not report lag")
	}
	if got := lagger.Lagged(); got != 2 {
		t.Errorf("expected 2 lagged values, got %d", got)
	}
}

func TestBroadcast_ClosedWhenLastSenderCloses(t *testing.T) {
	ctx := context.Background()
	ch := channel.Broadcast[int]()
	tx, rx := ch.Pair(1)

	clone, _, _ := ch.ResolveTx(tx)
	tx.Close()

	if err := clone.Send(ctx, 1); err != nil {
		t.Fatalf("send with one sender remaining: %v", err)
	}
	if v, err := rx.Recv(ctx); err != nil || v != 1 {
		t.Fatalf("recv: %v %v", v, err)
	}

	clone.Close()
	waitErr := make(chan error, 1)
	go func() {
		_, err := rx.Recv(ctx)
		waitErr <- err
	}()
	select {
	case err := <-waitErr:
		if !errors.Is(err, channel.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("recv did not observe close")
	}
}

func TestBroadcast_ReceiverCloseUnsubscribes(t *testing.T) {
	ctx := context.Background()
	tx, rx := channel.Broadcast[int]().Pair(1)

	rx.Close()
	// Sending to a channel with no live subscribers still succeeds.
	if err := tx.Send(ctx, 1); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := rx.Recv(ctx); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("expected ErrClosed on closed subscription, got %v", err)
	}
}
