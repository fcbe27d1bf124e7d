package lock

import (
	"context"
	"time"
)

// Locker provides named mutual exclusion across callers, possibly
// running in different processes or hosts. It is the sole serialization
// point around a limiter's check-and-consume step.
type Locker interface {
	// Acquire blocks until the named lock is held or ctx is done.
	// The ttl is a safety bound only: if the holder crashes, the lock
	// self-expires after ttl so other callers are not starved forever.
	// Provider-level failures return an error; contention does not.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}

// Lease is one held acquisition of a named lock.
type Lease interface {
	// Release gives the lock up. It is idempotent: calling it more
	// than once is safe and returns the first release's result.
	Release() error
}
