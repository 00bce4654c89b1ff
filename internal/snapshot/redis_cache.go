package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/sellerpulse-backend/pkg/redis"
)

// RedisCache shares snapshots between replicas as JSON documents.
type RedisCache struct {
	store redis.SnapshotStore
	ttl   time.Duration
}

// NewRedisCache builds a cache on top of the shared Redis client.
func NewRedisCache(store redis.SnapshotStore, ttl time.Duration) (*RedisCache, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	return &RedisCache{store: store, ttl: ttl}, nil
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, key Key) (*Snapshot, bool, error) {
	raw, err := c.store.Get(ctx, c.store.SnapshotKey(key.Normalize().String()))
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	snap.Key = key.Normalize()
	return &snap, true, nil
}

func (c *RedisCache) Set(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Key, err)
	}
	return c.store.Set(ctx, c.store.SnapshotKey(snap.Key.Normalize().String()), payload, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, seller string) (int, error) {
	total := 0
	for _, token := range invalidationTokens(seller) {
		n, err := c.store.DeleteMatching(ctx, c.store.SnapshotPattern(token))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func invalidationTokens(seller string) []string {
	token := SellerToken(seller)
	if token == "*" {
		return []string{"*"}
	}
	return []string{redis.EscapePattern(token), "\\*"}
}
