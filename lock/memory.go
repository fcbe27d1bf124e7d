package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker serializes callers within a single process. Expired
// leases can be taken over, mirroring the TTL semantics of the
// distributed providers, which keeps tests and single-instance
// deployments on the same contract.
type MemoryLocker struct {
	mu     sync.Mutex
	holds  map[string]*memoryHold
	nextID uint64
}

type memoryHold struct {
	id        uint64
	expiresAt time.Time
}

// Ensure MemoryLocker implements Locker interface
var _ Locker = (*MemoryLocker)(nil)

// NewMemoryLocker creates a new in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{holds: make(map[string]*memoryHold)}
}

// Acquire blocks until the named lock is free (or its current hold has
// expired), then takes it for at most ttl.
func (l *MemoryLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	for {
		if id, ok := l.tryAcquire(name, ttl); ok {
			return &memoryLease{locker: l, name: name, id: id}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (l *MemoryLocker) tryAcquire(name string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if hold, held := l.holds[name]; held && now.Before(hold.expiresAt) {
		return 0, false
	}

	l.nextID++
	l.holds[name] = &memoryHold{id: l.nextID, expiresAt: now.Add(ttl)}
	return l.nextID, true
}

// release frees the lock only if it is still held by the given lease.
// A lease whose hold expired and was taken over must not free the new
// holder's lock.
func (l *MemoryLocker) release(name string, id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if hold, held := l.holds[name]; held && hold.id == id {
		delete(l.holds, name)
	}
}

type memoryLease struct {
	locker *MemoryLocker
	name   string
	id     uint64
	once   sync.Once
}

func (ml *memoryLease) Release() error {
	ml.once.Do(func() {
		ml.locker.release(ml.name, ml.id)
	})
	return nil
}
