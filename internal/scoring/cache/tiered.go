package cache

import (
	"context"
	"time"

	"golang-headline-signal/internal/entity"
)

// TieredCache reads the local memory cache first and falls back to a shared
// cache, back-filling memory on a shared hit.
type TieredCache struct {
	local  ResultCache
	shared ResultCache
	ttl    time.Duration
}

// NewTieredCache combines a local and a shared cache. ttl is the lifetime
// results are written with and bounds how long a back-filled entry lives.
func NewTieredCache(local, shared ResultCache, ttl time.Duration) *TieredCache {
	return &TieredCache{local: local, shared: shared, ttl: ttl}
}

func (t *TieredCache) Get(ctx context.Context, key string) (entity.Result, bool) {
	if res, ok := t.local.Get(ctx, key); ok {
		return res, true
	}
	res, ok := t.shared.Get(ctx, key)
	if !ok {
		return entity.Result{}, false
	}
	// The shared copy does not carry its remaining TTL; keep it locally only
	// until it would have expired from the time it was computed.
	if remaining := time.Until(res.ComputedAt.Add(t.ttl)); remaining > 0 {
		t.local.Put(ctx, key, res, remaining)
	}
	return res, true
}

func (t *TieredCache) Put(ctx context.Context, key string, result entity.Result, ttl time.Duration) {
	t.local.Put(ctx, key, result, ttl)
	t.shared.Put(ctx, key, result, ttl)
}

func (t *TieredCache) EvictExpired() {
	t.local.EvictExpired()
	t.shared.EvictExpired()
}
