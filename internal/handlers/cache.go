package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	perfumeListCacheKey   = "perfumes:list"
	componentListCacheKey = "components:list"
	cacheTTLShort         = 5 * time.Minute
)

// Cache helpers are nil-safe so the handlers work without redis (tests,
// local runs). Cache failures are never surfaced; the database is the
// source of truth.

func cacheGetJSON(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func cacheSetJSON(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = rdb.Set(ctx, key, raw, ttl).Err()
}

func cacheDel(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, keys...).Err()
}
