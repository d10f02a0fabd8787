// Package gobus structures message-passing applications built from
// independently spawned services that communicate over typed channels.
//
// This package is part of [gobus], a typed service-bus toolkit for Go.
// The gobus family includes:
//
//   - gobus (this package) — the type-indexed bus of channel endpoints and
//     resources
//   - [channel] — the sender/receiver pair implementations carried by a bus
//   - [task] — goroutine supervision with ownership handles (lifelines)
//   - [carry] — forwarding tasks that bridge message types between buses
//
// # Quick Start
//
//	bus := gobus.New(gobus.WithName("main"))
//	gobus.Bind[Ping](bus, channel.Mpsc[Ping]())
//	gobus.Bind[Pong](bus, channel.Mpsc[Pong]())
//
//	// A service takes the channels it needs, then spawns its work.
//	rx, _ := gobus.Rx[Ping](bus)
//	tx, _ := gobus.Tx[Pong](bus)
//	lifeline := task.Spawn("ponger", func(ctx context.Context) error {
//		for {
//			_, err := rx.Recv(ctx)
//			if err != nil {
//				return nil
//			}
//			if err := tx.Send(ctx, Pong{}); err != nil {
//				return err
//			}
//		}
//	})
//	defer lifeline.Close()
//
// # Take and clone
//
// Every resolution applies the storage policy of the requested half: a
// clone-policy value (an mpsc sender, a broadcast subscription, a Shared
// resource) resolves successfully any number of times, each caller sharing
// the same underlying channel or resource. A take-policy value (an mpsc
// receiver, a watch sender, a plain resource) resolves exactly once;
// subsequent resolutions fail with ErrAlreadyTaken. An ErrAlreadyTaken is a
// wiring mistake made visible — two services both expect ownership of a
// single-consumer endpoint — and is never retried internally.
//
// [gobus]: https://github.com/fxsml/gobus
// [channel]: https://pkg.go.dev/github.com/fxsml/gobus/channel
// [task]: https://pkg.go.dev/github.com/fxsml/gobus/task
// [carry]: https://pkg.go.dev/github.com/fxsml/gobus/carry
package gobus
