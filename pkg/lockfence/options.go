package lockfence

import (
	"fmt"
	"time"

	"github.com/yourusername/lockfence/lock"
	"github.com/yourusername/lockfence/metrics"
	"github.com/yourusername/lockfence/store"
)

// Option is a functional option for configuring a Limiter.
type Option func(*limiter) error

// WithStore sets the counter store shared by every caller of this
// budget. If not provided, an in-process memory store is used.
func WithStore(s store.Store) Option {
	return func(l *limiter) error {
		if s == nil {
			return fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
		}
		l.store = s
		return nil
	}
}

// WithLocker sets the distributed lock provider guarding the
// check-and-consume step. If not provided, an in-process locker is used.
func WithLocker(lk lock.Locker) Option {
	return func(l *limiter) error {
		if lk == nil {
			return fmt.Errorf("%w: locker cannot be nil", ErrInvalidConfig)
		}
		l.locker = lk
		return nil
	}
}

// WithOverflowHandler sets the strategy for rejected attempts.
// Default: NewBlockAndRetry().
func WithOverflowHandler(h OverflowHandler) Option {
	return func(l *limiter) error {
		if h == nil {
			return fmt.Errorf("%w: overflow handler cannot be nil", ErrInvalidConfig)
		}
		l.overflow = h
		return nil
	}
}

// WithMetrics attaches a metrics tracker recording attempt outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *limiter) error {
		if m == nil {
			return fmt.Errorf("%w: metrics cannot be nil", ErrInvalidConfig)
		}
		l.metrics = m
		return nil
	}
}

// WithLockTTL sets the safety TTL on lock acquisitions. It must exceed
// the worst-case critical-section latency by a wide margin.
// Default: 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(l *limiter) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: lock ttl must be positive", ErrInvalidConfig)
		}
		l.lockTTL = ttl
		return nil
	}
}

// WithLockFailureBackoff sets the fixed wait handed to the overflow
// handler when the lock provider fails. Default: 1s.
func WithLockFailureBackoff(d time.Duration) Option {
	return func(l *limiter) error {
		if d < 0 {
			return fmt.Errorf("%w: lock failure backoff cannot be negative", ErrInvalidConfig)
		}
		l.lockFailureBackoff = d
		return nil
	}
}

// WithClock sets the time source used by the admission algorithms.
// Intended for tests; defaults to time.Now, whose monotonic reading
// keeps in-process elapsed-time arithmetic immune to wall clock jumps.
func WithClock(now func() time.Time) Option {
	return func(l *limiter) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		l.now = now
		return nil
	}
}
