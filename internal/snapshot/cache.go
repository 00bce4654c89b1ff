package snapshot

import (
	"context"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// Cache stores snapshots by key for a bounded time. Invalidate drops every
// entry of a seller, including the entries that span all sellers.
type Cache interface {
	Name() string
	Get(ctx context.Context, key Key) (*Snapshot, bool, error)
	Set(ctx context.Context, snap *Snapshot) error
	Invalidate(ctx context.Context, seller string) (int, error)
}

// MemoryCache keeps snapshots in process using go-cache.
type MemoryCache struct {
	cache *goCache.Cache
	ttl   time.Duration
}

// NewMemoryCache builds an in-process cache whose entries expire after ttl.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryCache{
		cache: goCache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Get(_ context.Context, key Key) (*Snapshot, bool, error) {
	item, ok := c.cache.Get(key.Normalize().String())
	if !ok {
		return nil, false, nil
	}
	snap, ok := item.(*Snapshot)
	return snap, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	c.cache.Set(snap.Key.Normalize().String(), snap, c.ttl)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, seller string) (int, error) {
	prefixes := invalidationPrefixes(seller)
	deleted := 0
	for key := range c.cache.Items() {
		for _, prefix := range prefixes {
			if prefix == "" || strings.HasPrefix(key, prefix) {
				c.cache.Delete(key)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Name() string { return "off" }

func (NoopCache) Get(context.Context, Key) (*Snapshot, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, *Snapshot) error { return nil }

func (NoopCache) Invalidate(context.Context, string) (int, error) { return 0, nil }

// invalidationPrefixes lists the key prefixes touched by a seller refresh.
// An empty seller clears everything, signalled by a single empty prefix.
func invalidationPrefixes(seller string) []string {
	token := SellerToken(seller)
	if token == "*" {
		return []string{""}
	}
	return []string{token + ":", "*:"}
}
