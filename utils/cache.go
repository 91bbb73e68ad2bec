package utils

import (
	"context"
	"encoding/json"
	"time"
)

// List endpoints cache their fully rendered JSON envelope under a
// "cache:<resource>:" key so cached and uncached responses stay
// byte-identical. Writes invalidate the whole resource prefix.

const cacheOpTimeout = 2 * time.Second

// CacheGetBytes returns the cached body for key, with ok reporting a hit.
// Any Redis failure reads as a miss.
func CacheGetBytes(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	b, err := GetRedis().Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache miss key=%s err=%v", key, err)
		return nil, false
	}
	return b, true
}

// CacheSetJSON marshals v and stores it under key for ttl (one hour when
// ttl is not positive). Failures are swallowed: the next request simply
// renders from the database again.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	b, err := json.Marshal(v)
	if err != nil {
		Sugar.Warnf("cache marshal failed key=%s err=%v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := GetRedis().Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Debugf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidateByPrefix removes every key under prefix, batching deletes so a
// large keyspace does not block Redis.
func InvalidateByPrefix(prefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rc := GetRedis()
	iter := rc.Scan(ctx, 0, prefix+"*", 500).Iterator()
	keys := make([]string, 0, 32)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 500 {
			_ = rc.Unlink(ctx, keys...).Err()
			keys = keys[:0]
		}
	}
	if len(keys) > 0 {
		_ = rc.Unlink(ctx, keys...).Err()
	}
	if err := iter.Err(); err != nil {
		Sugar.Debugf("cache invalidate scan failed prefix=%s err=%v", prefix, err)
	}
}
