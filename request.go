package gobus

import (
	"context"

	"github.com/fxsml/gobus/channel"
)

// Request pairs a payload with a oneshot reply channel, for synchronous
// request/reply over a bus. The requester constructs the pair with
// [NewRequest], sends the request along any bound channel, and awaits the
// receiver; the serving side answers exactly once through Reply.
//
//	req, reply := gobus.NewRequest[Query, Answer](Query{ID: 7})
//	tx.Send(ctx, req)
//	answer, err := reply.Recv(ctx)
type Request[Req, Resp any] struct {
	// Payload is the request value carried to the serving side.
	Payload Req

	reply channel.Sender[Resp]
}

// NewRequest constructs a request carrying payload and the receiver its
// reply arrives on.
func NewRequest[Req, Resp any](payload Req) (Request[Req, Resp], channel.Receiver[Resp]) {
	tx, rx := channel.Oneshot[Resp]().Pair(1)
	return Request[Req, Resp]{Payload: payload, reply: tx}, rx
}

// Reply answers the request with respond's result. A request can be answered
// once; a second Reply fails with channel.ErrClosed. An error from respond is
// returned to the serving side and leaves the request unanswered.
func (r Request[Req, Resp]) Reply(ctx context.Context, respond func(context.Context, Req) (Resp, error)) error {
	resp, err := respond(ctx, r.Payload)
	if err != nil {
		return err
	}
	return r.reply.Send(ctx, resp)
}
