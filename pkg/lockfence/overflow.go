package lockfence

import (
	"context"
	"time"
)

// Signal tells the consume loop what to do after a rejected attempt.
type Signal int

const (
	// SignalRetry re-runs the consume attempt.
	SignalRetry Signal = iota

	// SignalAbort stops the loop; the handler's error reaches the caller.
	SignalAbort
)

// OverflowHandler is the strategy invoked when a consume attempt is
// rejected (or the lock provider fails). It receives the advertised
// wait and decides between retrying and aborting. Handlers must not
// hide control flow: every outcome is expressed through the returned
// Signal and error.
type OverflowHandler interface {
	// Handle processes one rejection. When the signal is SignalAbort,
	// the returned error is surfaced to the caller as the loop's result.
	Handle(ctx context.Context, wait time.Duration) (Signal, error)
}

const (
	// DefaultMaxWait caps a single handled delay at five minutes.
	DefaultMaxWait = 5 * time.Minute
)

// HandlerOption configures the built-in overflow handlers.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	min       time.Duration
	max       time.Duration
	threshold time.Duration
}

func newHandlerConfig(opts []HandlerOption) handlerConfig {
	c := handlerConfig{
		min: 0,
		max: DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithMinWait sets the lower clamp bound for handled delays.
func WithMinWait(d time.Duration) HandlerOption {
	return func(c *handlerConfig) { c.min = d }
}

// WithMaxWait sets the upper clamp bound for handled delays.
func WithMaxWait(d time.Duration) HandlerOption {
	return func(c *handlerConfig) { c.max = d }
}

// WithWaitThreshold enables deterministic delay normalization: delays
// at or above the threshold are rounded up to the next multiple of the
// threshold, which makes observed wait times predictable for callers
// and tests. Delays below the threshold pass through unchanged.
func WithWaitThreshold(d time.Duration) HandlerOption {
	return func(c *handlerConfig) { c.threshold = d }
}

// normalize rounds the wait per the threshold rule, then clamps it to
// [min, max]. Clamping happens after normalization.
func (c handlerConfig) normalize(wait time.Duration) time.Duration {
	if c.threshold > 0 && wait >= c.threshold {
		if rem := wait % c.threshold; rem != 0 {
			wait += c.threshold - rem
		}
	}
	if wait < c.min {
		wait = c.min
	}
	if wait > c.max {
		wait = c.max
	}
	return wait
}

// BlockAndRetry is the overflow handler that suspends the caller for
// the advertised wait and then retries the attempt. Paired with it, the
// consume loop has no iteration cap: it is bounded only by the max wait
// clamp and the caller's own context.
type BlockAndRetry struct {
	config handlerConfig
}

// Ensure BlockAndRetry implements OverflowHandler
var _ OverflowHandler = (*BlockAndRetry)(nil)

// NewBlockAndRetry creates a blocking overflow handler.
func NewBlockAndRetry(opts ...HandlerOption) *BlockAndRetry {
	return &BlockAndRetry{config: newHandlerConfig(opts)}
}

// Handle sleeps for the normalized, clamped wait and signals a retry.
// Context cancellation cuts the sleep short and aborts with ctx.Err().
func (h *BlockAndRetry) Handle(ctx context.Context, wait time.Duration) (Signal, error) {
	wait = h.config.normalize(wait)

	if wait <= 0 {
		// Still honor cancellation between iterations.
		if err := ctx.Err(); err != nil {
			return SignalAbort, err
		}
		return SignalRetry, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return SignalAbort, ctx.Err()
	case <-timer.C:
		return SignalRetry, nil
	}
}

// FailFast is the overflow handler that never suspends: it aborts the
// loop immediately, handing the caller the clamped delay hint as a
// *RateLimitError so the caller can requeue with its own strategy.
type FailFast struct {
	config handlerConfig
}

// Ensure FailFast implements OverflowHandler
var _ OverflowHandler = (*FailFast)(nil)

// NewFailFast creates a non-blocking overflow handler.
func NewFailFast(opts ...HandlerOption) *FailFast {
	return &FailFast{config: newHandlerConfig(opts)}
}

// Handle aborts with a *RateLimitError carrying the normalized,
// clamped wait. No suspension occurs.
func (h *FailFast) Handle(_ context.Context, wait time.Duration) (Signal, error) {
	return SignalAbort, &RateLimitError{RetryAfter: h.config.normalize(wait)}
}
