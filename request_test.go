package gobus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fxsml/gobus"
	"github.com/fxsml/gobus/channel"
	"github.com/fxsml/gobus/task"
)

type query struct {
	ID int
}

type answer struct {
	ID   int
	Name string
}

func TestRequest_ReplyRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	b := gobus.New()
	if err := gobus.Bind(b, channel.Mpsc[gobus.Request[query, answer]]()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	rx, err := gobus.Rx[gobus.Request[query, answer]](b)
	if err != nil {
		t.Fatalf("rx: %v", err)
	}
	lifeline := task.Spawn("responder", func(ctx context.Context) error {
		defer rx.Close()
		for {
			req, err := rx.Recv(ctx)
			if errors.Is(err, channel.ErrClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			err = req.Reply(ctx, func(ctx context.Context, q query) (answer, error) {
				return answer{ID: q.ID, Name: "found"}, nil
			})
			if err != nil {
				return err
			}
		}
	})
	defer lifeline.Close()

	tx, err := gobus.Tx[gobus.Request[query, answer]](b)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	req, reply := gobus.NewRequest[query, answer](query{ID: 7})
	if err := tx.Send(ctx, req); err != nil {
		t.Fatalf("send: %v", err)
	}

	a, err := reply.Recv(ctx)
	if err != nil {
		t.Fatalf("recv reply: %v", err)
	}
	if a.ID != 7 || a.Name != "found" {
		t.Errorf("unexpected answer: %+v", a)
	}
}

func TestRequest_SecondReplyFails(t *testing.T) {
	ctx := context.Background()

	req, reply := gobus.NewRequest[query, answer](query{ID: 1})
	respond := func(ctx context.Context, q query) (answer, error) {
		return answer{ID: q.ID}, nil
	}

	if err := req.Reply(ctx, respond); err != nil {
		t.Fatalf("first reply: %v", err)
	}
	if err := req.Reply(ctx, respond); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("expected ErrClosed on second reply, got %v", err)
	}

	if a, err := reply.Recv(ctx); err != nil || a.ID != 1 {
		t.Errorf("recv = %+v, %v", a, err)
	}
}

func TestRequest_RespondErrorLeavesUnanswered(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	req, reply := gobus.NewRequest[query, answer](query{ID: 1})
	err := req.Reply(ctx, func(ctx context.Context, q query) (answer, error) {
		return answer{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected respond error, got %v", err)
	}

	recvCtx, recvCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer recvCancel()
	if a, err := reply.Recv(recvCtx); err == nil {
		t.Errorf("expected no reply, got %+v", a)
	}
}
