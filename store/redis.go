package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore provides Redis-backed storage for limiter state
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // How long to keep limiter state in Redis
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// RedisConfig for creating a Redis store
type RedisConfig struct {
	Addr      string        // Redis address (e.g., "localhost:6379")
	Password  string        // Redis password (empty for no auth)
	DB        int           // Redis database number
	KeyPrefix string        // Prefix for all keys (default: "lockfence:")
	TTL       time.Duration // TTL for limiter state (default: 1 hour)
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return NewRedisStoreWithClient(client, config)
}

// NewRedisStoreWithClient wraps an existing Redis client, so the store
// and the lock provider can share one connection pool.
func NewRedisStoreWithClient(client *redis.Client, config RedisConfig) *RedisStore {
	ttl := config.TTL
	if ttl == 0 {
		ttl = 1 * time.Hour // Default TTL
	}
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "lockfence:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves the value for a given key.
// An absent key is not an error: it returns (nil, nil).
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put stores the value for a given key, refreshing the idle TTL
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes the value for a given key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Clear removes all lockfence keys from Redis
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Ping checks if Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
