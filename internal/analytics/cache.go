package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "analytics:snapshot"

// ErrCacheMiss is returned when no snapshot is cached.
var ErrCacheMiss = errors.New("analytics: snapshot not cached")

// SnapshotCache holds the most recent rollup in Redis so repeated analytics
// reads do not re-run the aggregation queries.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if client == nil {
		panic("analytics: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func (c *SnapshotCache) Get(ctx context.Context) (*Rollup, error) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("analytics: cache read failed: %w", err)
	}

	var rollup Rollup
	if err := json.Unmarshal(data, &rollup); err != nil {
		return nil, fmt.Errorf("analytics: cached snapshot corrupt: %w", err)
	}
	return &rollup, nil
}

func (c *SnapshotCache) Set(ctx context.Context, rollup *Rollup) error {
	data, err := json.Marshal(rollup)
	if err != nil {
		return fmt.Errorf("analytics: failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("analytics: cache write failed: %w", err)
	}
	return nil
}
