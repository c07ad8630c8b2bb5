package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a key-value cache with per-entry expiration. Implementations own
// all concurrency control for their backing storage. Callers are expected to
// treat any error as a miss (on read) or a no-op (on write); a cache failure
// must never fail the overall operation.
type Store interface {
	// Get returns the cached value for key. The second return value is false
	// when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store on top of a Redis connection using GET/SETEX
// semantics. Expiry is enforced by Redis itself.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore around an existing client. The client
// is constructed once at process start and shared (see app.Dependencies).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.SetEx(ctx, key, value, ttl).Err()
}
