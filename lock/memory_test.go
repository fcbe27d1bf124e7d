package lock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				lease, err := locker.Acquire(ctx, "shared", time.Second)
				if err != nil {
					t.Errorf("Acquire() unexpected error: %v", err)
					return
				}

				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()

				lease.Release()
			}
		}()
	}

	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("observed %d concurrent holders, want 1", maxSeen)
	}
}

func TestMemoryLocker_ReleaseIdempotent(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "idem", time.Second)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}

	if err := lease.Release(); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
	if err := lease.Release(); err != nil {
		t.Errorf("second Release() unexpected error: %v", err)
	}

	// The lock must be free again.
	acquireCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	lease2, err := locker.Acquire(acquireCtx, "idem", time.Second)
	if err != nil {
		t.Fatalf("Acquire() after release should succeed: %v", err)
	}
	lease2.Release()
}

func TestMemoryLocker_ExpiredHoldIsTakenOver(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	// Simulate a crashed holder: acquire with a short TTL, never release.
	_, err := locker.Acquire(ctx, "crashed", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	start := time.Now()
	lease, err := locker.Acquire(acquireCtx, "crashed", time.Second)
	if err != nil {
		t.Fatalf("Acquire() should take over an expired hold: %v", err)
	}
	defer lease.Release()

	if waited := time.Since(start); waited > 500*time.Millisecond {
		t.Errorf("takeover took %s, want roughly the ttl (20ms)", waited)
	}
}

func TestMemoryLocker_StaleLeaseCannotReleaseNewHold(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "contested", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}

	// Let the stale hold expire and take the lock over.
	time.Sleep(20 * time.Millisecond)
	fresh, err := locker.Acquire(ctx, "contested", time.Second)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	defer fresh.Release()

	// Releasing the stale lease must not free the fresh hold.
	stale.Release()

	tryCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(tryCtx, "contested", time.Second); err == nil {
		t.Error("lock should still be held by the fresh lease")
	}
}

func TestMemoryLocker_AcquireRespectsContext(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "held", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	defer lease.Release()

	cancelCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(cancelCtx, "held", time.Minute)
	if err != context.DeadlineExceeded {
		t.Errorf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestMemoryLocker_IndependentNames(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	leaseA, err := locker.Acquire(ctx, "a", time.Minute)
	if err != nil {
		t.Fatalf("Acquire(a) unexpected error: %v", err)
	}
	defer leaseA.Release()

	// A different name must not be blocked.
	acquireCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	leaseB, err := locker.Acquire(acquireCtx, "b", time.Minute)
	if err != nil {
		t.Fatalf("Acquire(b) should not contend with a: %v", err)
	}
	leaseB.Release()
}
