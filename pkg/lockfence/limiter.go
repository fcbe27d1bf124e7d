package lockfence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/lockfence/core"
	"github.com/yourusername/lockfence/lock"
	"github.com/yourusername/lockfence/metrics"
	"github.com/yourusername/lockfence/store"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can keep a
	// limiter lock. The critical section lasts microseconds to low
	// milliseconds, so 30s leaves a wide safety margin without
	// starving other callers for long after a crash.
	DefaultLockTTL = 30 * time.Second

	// DefaultLockFailureBackoff is the wait handed to the overflow
	// handler when the lock provider itself fails. Treating provider
	// failures as a rate-limit event with a conservative backoff keeps
	// callers from hammering a struggling lock service.
	DefaultLockFailureBackoff = time.Second
)

// Limiter guards one shared consumption budget, named by its config ID,
// across any number of concurrent callers.
type Limiter interface {
	// Attempt runs one lock-guarded consume attempt and reports the
	// decision. Lock-provider failures wrap ErrLockFailed; store
	// failures inside the critical section wrap ErrStoreFailed.
	Attempt(ctx context.Context) (*Decision, error)

	// Wait blocks until an attempt is admitted, the overflow handler
	// aborts, or a store failure occurs.
	Wait(ctx context.Context) error

	// Do waits for admission and then invokes fn, returning its error
	// untouched.
	Do(ctx context.Context, fn func(context.Context) error) error
}

// Decision contains the outcome of a single consume attempt.
type Decision struct {
	// Allowed indicates whether the attempt was admitted
	Allowed bool

	// Remaining is the number of units left in the budget
	Remaining int64

	// Limit is the total budget
	Limit int64

	// RetryAfter is how long to wait before the next attempt would be
	// admitted. Zero when Allowed is true. Always a whole number of
	// milliseconds, rounded up.
	RetryAfter time.Duration

	// ID is the limiter id that was checked
	ID string
}

// limiter is the concrete implementation of Limiter.
type limiter struct {
	config   Config
	store    store.Store
	locker   lock.Locker
	overflow OverflowHandler
	metrics  *metrics.Metrics

	lockTTL            time.Duration
	lockFailureBackoff time.Duration
	now                func() time.Time

	window *core.SlidingWindow
	bucket *core.TokenBucket
}

// New creates a Limiter for the given budget.
// With no options it runs on in-process collaborators; production
// deployments inject the shared store and lock provider:
//
//	limiter, err := lockfence.New(
//	    lockfence.PerSecond("github-api", 10),
//	    lockfence.WithStore(redisStore),
//	    lockfence.WithLocker(redisLocker),
//	)
func New(config Config, opts ...Option) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &limiter{
		config:             config,
		lockTTL:            DefaultLockTTL,
		lockFailureBackoff: DefaultLockFailureBackoff,
		now:                time.Now,
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if l.store == nil {
		l.store = store.NewMemoryStore()
	}
	if l.locker == nil {
		l.locker = lock.NewMemoryLocker()
	}
	if l.overflow == nil {
		l.overflow = NewBlockAndRetry()
	}

	algoConfig := core.Config{Limit: config.Limit, Interval: config.Interval}
	switch config.Policy {
	case core.PolicySlidingWindow:
		l.window = core.NewSlidingWindow(algoConfig)
	case core.PolicyTokenBucket:
		l.bucket = core.NewTokenBucket(algoConfig)
	}

	return l, nil
}

func (l *limiter) stateKey() string { return "state:" + l.config.ID }
func (l *limiter) lockName() string { return l.config.ID }

// Attempt is the atomic unit: acquire the lock, load state, run the
// algorithm, persist, release. The lease is released on every exit
// path, including load, decode and persist failures.
func (l *limiter) Attempt(ctx context.Context) (*Decision, error) {
	lease, err := l.locker.Acquire(ctx, l.lockName(), l.lockTTL)
	if err != nil {
		// Context cancellation is the caller's own doing, not a
		// provider failure.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrLockFailed, err)
	}
	defer lease.Release()

	raw, err := l.store.Get(ctx, l.stateKey())
	if err != nil {
		return nil, fmt.Errorf("%w: load state for %s: %v", ErrStoreFailed, l.config.ID, err)
	}

	newRaw, result, err := l.check(raw, l.now())
	if err != nil {
		return nil, fmt.Errorf("%w: decode state for %s: %v", ErrStoreFailed, l.config.ID, err)
	}

	// Persist unconditionally - rejected attempts update the state
	// too, so accounting stays monotonic.
	if err := l.store.Put(ctx, l.stateKey(), newRaw); err != nil {
		return nil, fmt.Errorf("%w: persist state for %s: %v", ErrStoreFailed, l.config.ID, err)
	}

	return &Decision{
		Allowed:    result.Allowed,
		Remaining:  result.Remaining,
		Limit:      result.Limit,
		RetryAfter: time.Duration(result.RetryAfterMs) * time.Millisecond,
		ID:         l.config.ID,
	}, nil
}

// check dispatches the serialized state to the configured pure
// algorithm and returns the re-serialized new state.
func (l *limiter) check(raw []byte, now time.Time) ([]byte, core.CheckResult, error) {
	if l.window != nil {
		var state *core.WindowState
		if raw != nil {
			state = new(core.WindowState)
			if err := json.Unmarshal(raw, state); err != nil {
				return nil, core.CheckResult{}, err
			}
		}
		newState, result := l.window.Check(state, now)
		newRaw, err := json.Marshal(newState)
		return newRaw, result, err
	}

	var state *core.BucketState
	if raw != nil {
		state = new(core.BucketState)
		if err := json.Unmarshal(raw, state); err != nil {
			return nil, core.CheckResult{}, err
		}
	}
	newState, result := l.bucket.Check(state, now)
	newRaw, err := json.Marshal(newState)
	return newRaw, result, err
}

// Wait is the consume loop: it repeats Attempt and dispatches every
// rejection to the overflow handler until an attempt is admitted, the
// handler aborts, or a store failure ends the loop.
func (l *limiter) Wait(ctx context.Context) error {
	for {
		decision, err := l.Attempt(ctx)

		switch {
		case err == nil && decision.Allowed:
			if l.metrics != nil {
				l.metrics.RecordAttempt(l.config.ID, true)
			}
			return nil

		case err == nil:
			if l.metrics != nil {
				l.metrics.RecordAttempt(l.config.ID, false)
			}
			signal, herr := l.overflow.Handle(ctx, decision.RetryAfter)
			if signal == SignalRetry {
				continue
			}
			return herr

		case errors.Is(err, ErrLockFailed):
			// Treated as a transient limit event with a fixed
			// conservative backoff rather than propagated.
			if l.metrics != nil {
				l.metrics.RecordLockFailure(l.config.ID)
			}
			signal, herr := l.overflow.Handle(ctx, l.lockFailureBackoff)
			if signal == SignalRetry {
				continue
			}
			return herr

		default:
			// Store failures and context cancellation propagate.
			return err
		}
	}
}

// Do waits for admission and then invokes the downstream fn. The
// limiter never inspects fn's work; it only gates whether it runs.
func (l *limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
