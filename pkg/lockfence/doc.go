// Package lockfence provides a distributed, lock-guarded request-rate
// limiter: a shared consumption budget enforced across processes and
// hosts by wrapping the check-and-consume step in a named mutual
// exclusion lock.
//
// The check itself is a pure algorithm (sliding window or token bucket)
// over state held in an external counter store. The store needs no
// atomicity of its own - every read-modify-write happens inside the
// lock's critical section, so at most one caller in the whole fleet
// mutates a budget's state at a time.
//
// # Quick Start
//
// Single-process usage with in-memory collaborators:
//
//	limiter, err := lockfence.New(lockfence.PerSecond("github-api", 10))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until a slot is available, then runs the request.
//	err = limiter.Do(ctx, func(ctx context.Context) error {
//	    return callDownstream(ctx)
//	})
//
// # Distributed usage
//
// Share one budget across a fleet by backing the limiter with Redis:
//
//	rdb := store.NewRedisStore(store.RedisConfig{Addr: "localhost:6379"})
//	rlk := lock.NewRedisLocker(lock.RedisLockerConfig{Addr: "localhost:6379"})
//
//	limiter, err := lockfence.New(
//	    lockfence.Burst("github-api", 3, 3*time.Second),
//	    lockfence.WithStore(rdb),
//	    lockfence.WithLocker(rlk),
//	)
//
// # Overflow handling
//
// A rejected attempt is handed to an overflow handler. The default
// blocks for the advertised delay and retries. A fail-fast handler
// aborts instead, surfacing a *RateLimitError with the delay hint:
//
//	limiter, _ := lockfence.New(
//	    lockfence.PerMinute("search", 60),
//	    lockfence.WithOverflowHandler(lockfence.NewFailFast()),
//	)
//
//	err := limiter.Wait(ctx)
//	var rle *lockfence.RateLimitError
//	if errors.As(err, &rle) {
//	    requeueAfter(rle.RetryAfter)
//	}
//
// # HTTP clients
//
// Transport gates outgoing requests without touching call sites:
//
//	client := &http.Client{Transport: &lockfence.Transport{Limiter: limiter}}
//
// # Error semantics
//
// Lock-provider failures are absorbed by the loop as transient limit
// events with a fixed backoff. Store failures inside the critical
// section wrap ErrStoreFailed and always propagate: once a load or
// persist fails, the attempt's atomicity cannot be trusted.
package lockfence
