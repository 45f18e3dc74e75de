// Package cache holds scored results keyed by the normalized
// (model, symbol, headline) identity. Cache operations never fail: an
// unavailable backend behaves as an empty cache.
package cache

import (
	"context"
	"time"

	"golang-headline-signal/internal/entity"
)

// ResultCache stores Results with a time-to-live.
type ResultCache interface {
	// Get returns a live entry. Expired entries are never returned.
	Get(ctx context.Context, key string) (entity.Result, bool)
	// Put inserts or overwrites the entry for key; the latest write wins.
	Put(ctx context.Context, key string, result entity.Result, ttl time.Duration)
	// EvictExpired drops entries whose TTL has elapsed.
	EvictExpired()
}

// Key builds the cache key for a request scored by model.
func Key(model string, k entity.CacheKey) string {
	return model + "|" + k.String()
}
