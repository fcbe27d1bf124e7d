package store

import "context"

// Store is the counter store holding serialized limiter state between
// consume attempts. Implementations need no atomicity of their own:
// every Get/Put happens inside the lock-held critical section of a
// single consume attempt.
type Store interface {
	// Get returns the value stored under key, or (nil, nil) when the
	// key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error
}
