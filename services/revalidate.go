package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"picvault-backend/internal/logger"
)

// revalidateChannel carries invalidated paths to any rendering layer
// subscribed for recomputation.
const revalidateChannel = "revalidate"

// Revalidator caches serialized gallery views in Redis and signals path
// invalidation after mutations. A nil Redis client disables caching; every
// method degrades to a no-op so callers never branch.
type Revalidator struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRevalidator(rdb *redis.Client, ttl time.Duration) *Revalidator {
	return &Revalidator{rdb: rdb, ttl: ttl}
}

func viewKey(path string) string {
	return "view:" + path
}

// CachedView returns the cached payload for a path, if present.
func (r *Revalidator) CachedView(ctx context.Context, path string) ([]byte, bool) {
	if r == nil || r.rdb == nil {
		return nil, false
	}

	payload, err := r.rdb.Get(ctx, viewKey(path)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// StoreView caches a serialized view payload under the path with TTL.
func (r *Revalidator) StoreView(ctx context.Context, path string, payload []byte) {
	if r == nil || r.rdb == nil {
		return
	}

	if err := r.rdb.Set(ctx, viewKey(path), payload, r.ttl).Err(); err != nil {
		logger.Warn("failed to store cached view", "path", path, "error", err)
	}
}

// InvalidatePath drops every cached view under the path and publishes
// exactly one invalidation signal for it.
func (r *Revalidator) InvalidatePath(ctx context.Context, path string) {
	if r == nil || r.rdb == nil {
		return
	}

	iter := r.rdb.Scan(ctx, 0, viewKey(path)+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("failed to drop cached view", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warn("cached view scan failed", "path", path, "error", err)
	}

	if err := r.rdb.Publish(ctx, revalidateChannel, path).Err(); err != nil {
		logger.Warn("failed to publish invalidation", "path", path, "error", err)
	}
}
