package lockfence

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidID is returned when the limiter id is empty
	ErrInvalidID = errors.New("limiter id cannot be empty")

	// ErrInvalidLimit is returned when the limit is zero or negative
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidInterval is returned when the interval is zero or negative
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrStoreFailed is returned when a counter store operation fails
	// inside the critical section. The attempt cannot be retried
	// silently: once a load or persist fails, atomicity of the
	// check-and-consume step is no longer guaranteed.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrLockFailed is returned when the lock provider fails to grant
	// the limiter lock. Contention never produces this error - a
	// contended Acquire simply blocks.
	ErrLockFailed = errors.New("lock acquisition failed")
)

// RateLimitError is the abort outcome produced by a fail-fast overflow
// handler. It is expected, not exceptional: RetryAfter carries the
// clamped delay hint so the caller can requeue or defer on its own.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// RetryAfterMs returns the delay hint in whole milliseconds for callers
// that schedule deferred retries with millisecond precision.
func (e *RateLimitError) RetryAfterMs() int64 {
	return e.RetryAfter.Milliseconds()
}
