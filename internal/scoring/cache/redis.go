package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/pkg/common"
	"golang-headline-signal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares results between service instances. Redis expires keys
// natively, so EvictExpired is a no-op.
type RedisCache struct {
	client    redis.Cmdable
	log       *logger.Logger
	opTimeout time.Duration
}

// NewRedisCache creates a Redis-backed cache. opTimeout bounds every call so
// a slow Redis degrades to a miss instead of blocking the caller.
func NewRedisCache(client redis.Cmdable, log *logger.Logger, opTimeout time.Duration) *RedisCache {
	if opTimeout <= 0 {
		opTimeout = 200 * time.Millisecond
	}
	return &RedisCache{client: client, log: log, opTimeout: opTimeout}
}

func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf(common.RedisKeyResultCache, hex.EncodeToString(sum[:16]))
}

func (r *RedisCache) Get(ctx context.Context, key string) (entity.Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("Redis cache get failed, treating as miss", logger.ErrorField(err))
		}
		return entity.Result{}, false
	}

	var res entity.Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.log.Warn("Failed to decode cached result", logger.ErrorField(err))
		return entity.Result{}, false
	}
	return res, true
}

func (r *RedisCache) Put(ctx context.Context, key string, result entity.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		r.log.Warn("Failed to encode result for cache", logger.ErrorField(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	if err := r.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		r.log.Warn("Redis cache put failed", logger.ErrorField(err))
	}
}

func (r *RedisCache) EvictExpired() {}
