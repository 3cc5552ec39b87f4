// Package locksvc provides core.Locker implementations: in-process, or shared through redis.
package locksvc

import (
	"context"
	"sync"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

type localLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ core.Locker = (*localLocker)(nil)

// NewLocalLocker returns a Locker that serializes goroutines of this process only.
func NewLocalLocker() core.Locker {
	return &localLocker{locks: make(map[string]chan struct{})}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		held, ok := l.locks[key]
		if !ok {
			released := make(chan struct{})
			l.locks[key] = released
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(released)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
