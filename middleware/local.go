package middleware

import (
	"sync"

	"golang.org/x/time/rate"
)

// localFilter is a per-key token bucket kept entirely in-process. It
// exists to shed floods cheaply: only requests that pass it pay for
// the distributed lock round-trip.
type localFilter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLocalFilter(rps float64, burst int) *localFilter {
	return &localFilter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (f *localFilter) allow(key string) bool {
	f.mu.Lock()
	limiter, ok := f.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(f.rps, f.burst)
		f.limiters[key] = limiter
	}
	f.mu.Unlock()

	return limiter.Allow()
}
