package core

import (
	"math"
	"time"
)

// TokenBucket implements the token bucket rate limiting algorithm
type TokenBucket struct {
	config Config
}

// NewTokenBucket creates a new token bucket with the given configuration
func NewTokenBucket(config Config) *TokenBucket {
	return &TokenBucket{config: config}
}

// Check determines if a unit should be admitted based on the current bucket state.
// It returns the updated state and check result. A nil state starts with a
// full bucket. Tokens refill continuously at Limit per Interval, capped at
// Limit (the burst capacity).
func (tb *TokenBucket) Check(state *BucketState, now time.Time) (*BucketState, CheckResult) {
	if state == nil {
		state = &BucketState{
			Tokens:       float64(tb.config.Limit),
			LastRefillAt: now,
		}
	}

	refillPerSec := float64(tb.config.Limit) / tb.config.Interval.Seconds()

	// Calculate tokens to add based on time elapsed. Elapsed time is
	// clamped at zero so a wall clock stepping backward between two
	// callers never drains the bucket.
	elapsed := now.Sub(state.LastRefillAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	tokensToAdd := elapsed * refillPerSec

	// Refill tokens (capped at capacity)
	newTokens := math.Min(state.Tokens+tokensToAdd, float64(tb.config.Limit))

	newState := &BucketState{
		Tokens:       newTokens,
		LastRefillAt: now,
	}

	// Check if the unit can be admitted (need at least 1 token)
	if newState.Tokens >= 1.0 {
		newState.Tokens -= 1.0
		return newState, CheckResult{
			Allowed:   true,
			Remaining: int64(newState.Tokens),
			Limit:     tb.config.Limit,
		}
	}

	// Blocked - calculate time until the bucket holds a whole token
	tokensNeeded := 1.0 - newState.Tokens
	retryAfter := time.Duration(tokensNeeded / refillPerSec * float64(time.Second))

	return newState, CheckResult{
		Allowed:      false,
		Remaining:    0,
		RetryAfterMs: ceilMillis(retryAfter),
		Limit:        tb.config.Limit,
	}
}
