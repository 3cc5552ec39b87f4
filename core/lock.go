package core

import "context"

// Locker serializes critical sections across goroutines (and processes, depending on the implementation).
type Locker interface {
	// Lock blocks until the lock on key is acquired or ctx is done.
	// The returned func releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
