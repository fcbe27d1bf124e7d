package core

import "time"

// SlidingWindow implements the windowed counter rate limiting algorithm
type SlidingWindow struct {
	config Config
}

// NewSlidingWindow creates a new sliding window limiter with the given configuration
func NewSlidingWindow(config Config) *SlidingWindow {
	return &SlidingWindow{config: config}
}

// Check determines if a unit should be admitted based on the current window state.
// It returns the updated state and check result. A nil state opens a fresh
// window at now. The function is pure: it never reads the clock itself and
// never mutates the state it is given.
func (sw *SlidingWindow) Check(state *WindowState, now time.Time) (*WindowState, CheckResult) {
	if state == nil {
		state = &WindowState{WindowStart: now}
	}

	newState := &WindowState{
		WindowStart: state.WindowStart,
		Count:       state.Count,
	}

	// Window expired: open a new one at now
	if now.Sub(newState.WindowStart) >= sw.config.Interval {
		newState.WindowStart = now
		newState.Count = 0
	}

	if newState.Count < sw.config.Limit {
		newState.Count++
		return newState, CheckResult{
			Allowed:   true,
			Remaining: sw.config.Limit - newState.Count,
			Limit:     sw.config.Limit,
		}
	}

	// Window full - admission reopens when the current window ends
	wait := newState.WindowStart.Add(sw.config.Interval).Sub(now)
	if wait < 0 {
		wait = 0
	}

	return newState, CheckResult{
		Allowed:      false,
		Remaining:    0,
		RetryAfterMs: ceilMillis(wait),
		Limit:        sw.config.Limit,
	}
}
