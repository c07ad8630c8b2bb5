// Package services holds the read-through orchestration shared by every
// exposed operation: compute the cache key, consult the cache, fetch from
// the provider on a miss, then populate the cache with the operation's TTL.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"go.uber.org/zap"
)

// FetchThrough is the read-through pattern behind every operation. Cache
// failures degrade to a miss (on read) or a skipped write and are only
// logged; provider failures propagate to the caller unchanged. Concurrent
// misses for one key may both fetch and both write. That race is benign —
// the entries are equivalent — and is deliberately not locked against.
func FetchThrough[T any](ctx context.Context, store cache.Store, logger *zap.Logger, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached T
		decodeErr := json.Unmarshal(raw, &cached)
		if decodeErr == nil {
			return cached, nil
		}
		logger.Warn("cache entry corrupt, refetching", zap.String("key", key), zap.Error(decodeErr))
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if raw, err := json.Marshal(fresh); err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
	} else if err := store.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return fresh, nil
}
