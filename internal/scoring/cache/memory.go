package cache

import (
	"context"
	"hash/fnv"
	"time"

	"golang-headline-signal/internal/entity"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache spreads entries over independent go-cache shards so writers
// on different keys do not contend on one lock.
type MemoryCache struct {
	shards []*gocache.Cache
}

// NewMemoryCache creates a cache with the given number of shards. Expired
// entries are hidden from Get immediately and reclaimed by EvictExpired.
func NewMemoryCache(shards int) *MemoryCache {
	if shards <= 0 {
		shards = 1
	}
	m := &MemoryCache{shards: make([]*gocache.Cache, shards)}
	for i := range m.shards {
		m.shards[i] = gocache.New(gocache.NoExpiration, 0)
	}
	return m
}

func (m *MemoryCache) shard(key string) *gocache.Cache {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

func (m *MemoryCache) Get(_ context.Context, key string) (entity.Result, bool) {
	v, ok := m.shard(key).Get(key)
	if !ok {
		return entity.Result{}, false
	}
	res, ok := v.(entity.Result)
	return res, ok
}

func (m *MemoryCache) Put(_ context.Context, key string, result entity.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.shard(key).Set(key, result, ttl)
}

func (m *MemoryCache) EvictExpired() {
	for _, s := range m.shards {
		s.DeleteExpired()
	}
}

// Len returns the number of stored entries, including expired entries not
// yet evicted.
func (m *MemoryCache) Len() int {
	n := 0
	for _, s := range m.shards {
		n += s.ItemCount()
	}
	return n
}
