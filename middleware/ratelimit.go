package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yourusername/lockfence/pkg/lockfence"
)

// KeyFunc extracts a limiter id from the request, typically the client
// identity (IP address, API key, user id).
type KeyFunc func(*http.Request) string

// RateLimiter provides HTTP middleware enforcing per-client budgets
// through a shared lockfence.Manager.
type RateLimiter struct {
	manager *lockfence.Manager
	keyFunc KeyFunc
	local   *localFilter
}

// Config for creating a rate limiting middleware
type Config struct {
	// Manager resolves per-key limiters sharing one store and lock
	Manager *lockfence.Manager

	// KeyFunc extracts the client identity (default: IP with proxy headers)
	KeyFunc KeyFunc

	// LocalRPS/LocalBurst enable an optional process-local pre-filter
	// that sheds obvious overload before the distributed path is
	// taken. Zero disables it.
	LocalRPS   float64
	LocalBurst int
}

// NewRateLimiter creates a new rate limiting middleware
func NewRateLimiter(config Config) (*RateLimiter, error) {
	if config.Manager == nil {
		return nil, fmt.Errorf("%w: manager cannot be nil", lockfence.ErrInvalidConfig)
	}
	if config.KeyFunc == nil {
		config.KeyFunc = defaultKeyFunc
	}

	rl := &RateLimiter{
		manager: config.Manager,
		keyFunc: config.KeyFunc,
	}
	if config.LocalRPS > 0 && config.LocalBurst > 0 {
		rl.local = newLocalFilter(config.LocalRPS, config.LocalBurst)
	}
	return rl, nil
}

// defaultKeyFunc extracts the client identifier from the IP address
func defaultKeyFunc(r *http.Request) string {
	// Try X-Forwarded-For first (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Middleware wraps an http.Handler with rate limiting. Each rejected
// request gets a 429 with Retry-After and a JSON body carrying the
// millisecond hint, so clients can requeue precisely.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFunc(r)

		// Process-local shedding, no lock or store round-trip.
		if rl.local != nil && !rl.local.allow(key) {
			reject(w, 1000)
			return
		}

		limiter, err := rl.manager.For(key)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		decision, err := limiter.Attempt(r.Context())
		if err != nil {
			// A struggling lock provider is a temporary condition,
			// not a client error.
			if errors.Is(err, lockfence.ErrLockFailed) {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

		if !decision.Allowed {
			reject(w, decision.RetryAfter.Milliseconds())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func reject(w http.ResponseWriter, retryAfterMs int64) {
	retryAfterSec := retryAfterMs / 1000
	if retryAfterMs%1000 != 0 {
		retryAfterSec++
	}
	if retryAfterSec == 0 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":        "rate_limit_exceeded",
		"message":      "Too many requests. Please try again later.",
		"retryAfterMs": retryAfterMs,
	})
}
