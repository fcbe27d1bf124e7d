package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our
// token, so a lease that outlived its TTL cannot release a lock that
// has since been taken over by another caller.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker implements Locker on a single Redis instance using the
// SET NX PX pattern: the lock key is set with a random token and a TTL,
// and released through a compare-and-delete script.
type RedisLocker struct {
	client        *redis.Client
	prefix        string
	retryInterval time.Duration
}

// Ensure RedisLocker implements Locker interface
var _ Locker = (*RedisLocker)(nil)

// RedisLockerConfig for creating a Redis locker
type RedisLockerConfig struct {
	Addr          string        // Redis address (e.g., "localhost:6379")
	Password      string        // Redis password (empty for no auth)
	DB            int           // Redis database number
	KeyPrefix     string        // Prefix for lock keys (default: "lockfence:lock:")
	RetryInterval time.Duration // Poll interval while contended (default: 20ms)
}

// NewRedisLocker creates a new Redis-backed locker
func NewRedisLocker(config RedisLockerConfig) *RedisLocker {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return NewRedisLockerWithClient(client, config)
}

// NewRedisLockerWithClient wraps an existing Redis client, so the lock
// provider and the counter store can share one connection pool.
func NewRedisLockerWithClient(client *redis.Client, config RedisLockerConfig) *RedisLocker {
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "lockfence:lock:"
	}
	retry := config.RetryInterval
	if retry <= 0 {
		retry = 20 * time.Millisecond
	}

	return &RedisLocker{
		client:        client,
		prefix:        prefix,
		retryInterval: retry,
	}
}

// Acquire blocks until the named lock is taken or ctx is done.
// Contention is handled by polling; a Redis-level failure is returned
// to the caller as an acquisition error.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	key := l.prefix + name
	for {
		acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", name, err)
		}
		if acquired {
			return &redisLease{client: l.client, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

// Ping checks if the Redis connection is alive
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
	once   sync.Once
	err    error
}

func (rl *redisLease) Release() error {
	rl.once.Do(func() {
		// The lease may be released after its caller's context is
		// already cancelled; releasing must still be attempted.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rl.err = rl.client.Eval(ctx, releaseScript, []string{rl.key}, rl.token).Err()
	})
	return rl.err
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
