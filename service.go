package gobus

import "github.com/fxsml/gobus/task"

// Service constructs a long-running computation from the channels and
// resources of a bus. Spawn resolves everything the computation needs and
// moves the endpoints into it before returning; implementations must not
// retain the bus reference afterwards. Resolution failures propagate to the
// caller — continuing with a missing endpoint would only surface later as
// confusing downstream behavior.
type Service interface {
	Spawn(b *Bus) (*task.Lifeline, error)
}

// SpawnAll spawns the given services in order and bundles their lifelines
// under one composite handle. If any spawn fails, the already-spawned
// services are closed and the error is returned.
func SpawnAll(name string, b *Bus, services ...Service) (*task.Lifeline, error) {
	members := make([]*task.Lifeline, 0, len(services))
	for _, svc := range services {
		l, err := svc.Spawn(b)
		if err != nil {
			for _, m := range members {
				m.Close()
			}
			return nil, err
		}
		members = append(members, l)
	}
	return task.Bundle(name, members), nil
}
