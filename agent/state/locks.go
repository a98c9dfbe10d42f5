package state

import (
	"context"
	"sync"
)

// Lock serializes turns for one session id. The returned unlock func is safe
// to call more than once. Lock entries outlive their sessions; one small
// channel per id ever seen.
func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	sem, _ := s.locks.LoadOrCompute(id, func() chan struct{} {
		return make(chan struct{}, 1)
	})

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-sem })
	}, nil
}
