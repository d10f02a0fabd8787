// Package redis carries one message type between a bus and Redis pub/sub,
// so services on a bus can exchange messages with processes outside the bus
// tree. A [Publisher] forwards a bus's messages onto a topic, a
// [Subscriber] injects a topic's messages into a bus. Values travel as
// CloudEvents v1.0 JSON envelopes; events of any other type on the topic
// are skipped.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/fxsml/gobus"
	"github.com/fxsml/gobus/carry"
	"github.com/fxsml/gobus/channel"
	"github.com/fxsml/gobus/task"
)

// ErrNoTopic is returned when an edge is constructed with an empty topic.
var ErrNoTopic = errors.New("redis: topic required")

// Config configures a pub/sub edge.
type Config struct {
	// Topic is the Redis channel messages travel on. Required.
	Topic string

	// Source is the CloudEvents source attribute of outbound events.
	// Default: "/gobus".
	Source string

	// PublishConcurrency bounds the number of in-flight PUBLISH commands.
	// Default: 1 (publishes in order, and a failed publish fails the
	// outbound task; with concurrency above 1 failures are logged instead).
	PublishConcurrency int

	// Logger reports skipped events and publish failures.
	// Default: the task package logger.
	Logger task.Logger
}

func (c Config) defaults() Config {
	cfg := c
	if cfg.Source == "" {
		cfg.Source = "/gobus"
	}
	if cfg.PublishConcurrency <= 0 {
		cfg.PublishConcurrency = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = task.DefaultLogger()
	}
	return cfg
}

// codec encodes and decodes one message type as CloudEvents envelopes.
type codec[T any] struct {
	source    string
	eventType string
}

func newCodec[T any](source string) codec[T] {
	return codec[T]{source: source, eventType: eventTypeName[T]()}
}

func (c codec[T]) encode(v T) ([]byte, error) {
	ev := cloudevents.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(c.source)
	ev.SetType(c.eventType)
	ev.SetTime(time.Now().UTC())
	if err := ev.SetData(cloudevents.ApplicationJSON, v); err != nil {
		return nil, err
	}
	return json.Marshal(&ev)
}

var errSkipped = errors.New("redis: event type skipped")

func (c codec[T]) decode(data []byte) (T, error) {
	var zero T
	var ev cloudevents.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return zero, err
	}
	if ev.Type() != c.eventType {
		return zero, errSkipped
	}
	var v T
	if err := ev.DataAs(&v); err != nil {
		return zero, err
	}
	return v, nil
}

// Publisher forwards T messages from a bus onto a Redis topic.
type Publisher[T any] struct {
	client *goredis.Client
	cfg    Config
	codec  codec[T]
}

// NewPublisher creates the outbound edge for T on the configured topic.
func NewPublisher[T any](client *goredis.Client, cfg Config) *Publisher[T] {
	cfg = cfg.defaults()
	return &Publisher[T]{client: client, cfg: cfg, codec: newCodec[T](cfg.Source)}
}

// Carry resolves T's receiver from the bus and spawns the publish task. The
// resolution failure fails construction; nothing is spawned.
func (p *Publisher[T]) Carry(b *gobus.Bus) (*task.Lifeline, error) {
	if p.cfg.Topic == "" {
		return nil, ErrNoTopic
	}
	rx, err := gobus.Rx[T](b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", carry.ErrResolution, p.cfg.Topic, err)
	}

	return task.Spawn("redis/"+p.cfg.Topic+"/publish", func(ctx context.Context) error {
		defer rx.Close()
		return p.publish(ctx, rx)
	}), nil
}

func (p *Publisher[T]) publish(ctx context.Context, rx channel.Receiver[T]) error {
	sem := semaphore.NewWeighted(int64(p.cfg.PublishConcurrency))
	for {
		v, err := rx.Recv(ctx)
		if err != nil {
			if errors.Is(err, channel.ErrClosed) {
				return nil
			}
			return err
		}
		payload, err := p.codec.encode(v)
		if err != nil {
			p.cfg.Logger.Error("REDIS: Encode failure", "topic", p.cfg.Topic, "error", err)
			continue
		}

		if p.cfg.PublishConcurrency == 1 {
			if err := p.client.Publish(ctx, p.cfg.Topic, payload).Err(); err != nil {
				return err
			}
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer sem.Release(1)
			if err := p.client.Publish(ctx, p.cfg.Topic, payload).Err(); err != nil {
				p.cfg.Logger.Error("REDIS: Publish failure", "topic", p.cfg.Topic, "error", err)
			}
		}()
	}
}

// Subscriber injects T messages from a Redis topic into a bus.
type Subscriber[T any] struct {
	client *goredis.Client
	cfg    Config
	codec  codec[T]
}

// NewSubscriber creates the inbound edge for T on the configured topic.
func NewSubscriber[T any](client *goredis.Client, cfg Config) *Subscriber[T] {
	cfg = cfg.defaults()
	return &Subscriber[T]{client: client, cfg: cfg, codec: newCodec[T](cfg.Source)}
}

// Carry resolves T's sender from the bus and spawns the subscribe task.
func (s *Subscriber[T]) Carry(b *gobus.Bus) (*task.Lifeline, error) {
	if s.cfg.Topic == "" {
		return nil, ErrNoTopic
	}
	tx, err := gobus.Tx[T](b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", carry.ErrResolution, s.cfg.Topic, err)
	}

	return task.Spawn("redis/"+s.cfg.Topic+"/subscribe", func(ctx context.Context) error {
		defer tx.Close()
		return s.subscribe(ctx, tx)
	}), nil
}

func (s *Subscriber[T]) subscribe(ctx context.Context, tx channel.Sender[T]) error {
	sub := s.client.Subscribe(ctx, s.cfg.Topic)
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			v, err := s.codec.decode([]byte(m.Payload))
			if err != nil {
				if !errors.Is(err, errSkipped) {
					s.cfg.Logger.Warn("REDIS: Decode failure", "topic", s.cfg.Topic, "error", err)
				}
				continue
			}
			if err := tx.Send(ctx, v); err != nil {
				if errors.Is(err, channel.ErrClosed) {
					return nil
				}
				return err
			}
		}
	}
}
