package core

import "time"

// Policy selects the admission algorithm for a limiter.
type Policy string

const (
	// PolicySlidingWindow admits at most Limit units per Interval-length window.
	PolicySlidingWindow Policy = "sliding_window"

	// PolicyTokenBucket accrues capacity continuously up to Limit tokens,
	// refilling Limit tokens per Interval.
	PolicyTokenBucket Policy = "token_bucket"
)

// Config defines the shared budget enforced by an algorithm
type Config struct {
	Limit    int64         // Max units per window, or burst capacity
	Interval time.Duration // Window length, or full-refill period
}

// WindowState is the persisted state of a sliding window limiter.
// It is owned by whichever caller holds the limiter's lock.
type WindowState struct {
	WindowStart time.Time `json:"window_start"` // When the current window opened
	Count       int64     `json:"count"`        // Units consumed in the current window
}

// BucketState is the persisted state of a token bucket limiter.
type BucketState struct {
	Tokens       float64   `json:"tokens"`         // Current tokens available
	LastRefillAt time.Time `json:"last_refill_at"` // Last time tokens were refilled
}

// CheckResult contains the result of an admission check
type CheckResult struct {
	Allowed      bool  // Whether the unit was admitted
	Remaining    int64 // Units remaining after this check
	RetryAfterMs int64 // Milliseconds until retry (if blocked)
	Limit        int64 // Total budget
}

// ceilMillis converts d to whole milliseconds, rounding up so a caller
// that waits the advertised delay never retries before capacity exists.
func ceilMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return ms
}
