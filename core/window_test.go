package core

import (
	"testing"
	"time"
)

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	config := Config{
		Limit:    5,
		Interval: time.Second,
	}
	window := NewSlidingWindow(config)
	now := time.Now()

	var state *WindowState

	for i := 0; i < 5; i++ {
		var result CheckResult
		state, result = window.Check(state, now)

		if !result.Allowed {
			t.Errorf("Attempt %d should be admitted", i+1)
		}
		wantRemaining := config.Limit - int64(i+1)
		if result.Remaining != wantRemaining {
			t.Errorf("Attempt %d: Remaining = %d, want %d", i+1, result.Remaining, wantRemaining)
		}
	}

	// 6th attempt should be blocked
	_, result := window.Check(state, now)
	if result.Allowed {
		t.Error("Attempt 6 should be blocked (window full)")
	}
}

func TestSlidingWindow_SecondAttemptRetryAfter(t *testing.T) {
	config := Config{
		Limit:    1,
		Interval: time.Second,
	}
	window := NewSlidingWindow(config)
	now := time.Now()

	state, result := window.Check(nil, now)
	if !result.Allowed {
		t.Fatal("First attempt should be admitted")
	}

	// Second attempt in the same window is blocked until the window ends.
	state, result = window.Check(state, now)
	if result.Allowed {
		t.Fatal("Second attempt should be blocked")
	}
	if result.RetryAfterMs != 1000 {
		t.Errorf("RetryAfterMs = %d, want 1000", result.RetryAfterMs)
	}

	// Waiting the advertised delay must admit the next attempt.
	now = now.Add(time.Duration(result.RetryAfterMs) * time.Millisecond)
	_, result = window.Check(state, now)
	if !result.Allowed {
		t.Error("Attempt should be admitted after waiting the advertised delay")
	}
}

func TestSlidingWindow_ResetsAtBoundary(t *testing.T) {
	config := Config{
		Limit:    3,
		Interval: time.Second,
	}
	window := NewSlidingWindow(config)
	now := time.Now()

	var state *WindowState

	// Fill the window
	for i := 0; i < 3; i++ {
		state, _ = window.Check(state, now)
	}
	state, result := window.Check(state, now)
	if result.Allowed {
		t.Fatal("Window should be full")
	}

	// Just before the boundary: still blocked
	state, result = window.Check(state, now.Add(999*time.Millisecond))
	if result.Allowed {
		t.Error("Attempt just before the boundary should be blocked")
	}

	// At the boundary: a fresh window opens
	state, result = window.Check(state, now.Add(time.Second))
	if !result.Allowed {
		t.Error("Attempt at the boundary should be admitted")
	}
	if result.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2 in the fresh window", result.Remaining)
	}
	if state.Count != 1 {
		t.Errorf("Count = %d, want 1 in the fresh window", state.Count)
	}
}

func TestSlidingWindow_RetryAfterShrinksWithElapsedTime(t *testing.T) {
	config := Config{
		Limit:    1,
		Interval: time.Second,
	}
	window := NewSlidingWindow(config)
	now := time.Now()

	state, _ := window.Check(nil, now)

	tests := []struct {
		name    string
		elapsed time.Duration
		wantMs  int64
	}{
		{"immediately", 0, 1000},
		{"after 250ms", 250 * time.Millisecond, 750},
		{"after 999ms", 999 * time.Millisecond, 1},
		{"sub-millisecond remainder rounds up", 999*time.Millisecond + 500*time.Microsecond, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result := window.Check(state, now.Add(tt.elapsed))
			if result.Allowed {
				t.Fatal("Attempt should be blocked inside the window")
			}
			if result.RetryAfterMs != tt.wantMs {
				t.Errorf("RetryAfterMs = %d, want %d", result.RetryAfterMs, tt.wantMs)
			}
		})
	}
}

func TestSlidingWindow_RejectedAttemptKeepsCount(t *testing.T) {
	config := Config{
		Limit:    2,
		Interval: time.Second,
	}
	window := NewSlidingWindow(config)
	now := time.Now()

	var state *WindowState
	for i := 0; i < 4; i++ {
		state, _ = window.Check(state, now)
	}

	// Rejections must not grow or shrink the count.
	if state.Count != 2 {
		t.Errorf("Count = %d after rejected attempts, want 2", state.Count)
	}
}

func TestSlidingWindow_BoundedAdmissionsPerSpan(t *testing.T) {
	config := Config{
		Limit:    4,
		Interval: 100 * time.Millisecond,
	}
	window := NewSlidingWindow(config)
	start := time.Now()

	var state *WindowState
	admitted := make([]time.Time, 0)

	// Hammer the window at a fine grain for several intervals.
	for step := 0; step < 500; step++ {
		now := start.Add(time.Duration(step) * time.Millisecond)
		var result CheckResult
		state, result = window.Check(state, now)
		if result.Allowed {
			admitted = append(admitted, now)
		}
	}

	// Each window admits at most Limit units.
	perWindow := make(map[int64]int)
	for _, at := range admitted {
		perWindow[int64(at.Sub(start)/config.Interval)]++
	}
	for idx, n := range perWindow {
		if n > int(config.Limit) {
			t.Errorf("window %d admitted %d units, want <= %d", idx, n, config.Limit)
		}
	}

	// A rolling interval-length span straddling a reset boundary can see
	// admissions from two windows, but never more than twice the limit.
	for i := range admitted {
		inSpan := 0
		for j := i; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < config.Interval {
				inSpan++
			}
		}
		if inSpan > 2*int(config.Limit) {
			t.Fatalf("%d admissions within one rolling interval, want <= %d",
				inSpan, 2*config.Limit)
		}
	}
}
