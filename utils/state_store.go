package utils

import (
	"context"
	"sync"
	"time"
)

type stateEntry struct {
	expiresAt time.Time
}

var (
	stateStore   = map[string]stateEntry{}
	stateStoreMu sync.Mutex
)

// SaveState stores an OAuth state token with TTL to mitigate CSRF. The token
// always lands in the in-memory store; Redis is mirrored best-effort so a
// callback can hit a different instance.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	stateStoreMu.Lock()
	stateStore[state] = stateEntry{expiresAt: time.Now().Add(ttl)}
	stateStoreMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = GetRedis().Set(ctx, "oauth:state:"+state, "1", ttl).Err()
}

// ConsumeState validates and removes a state token. Single use.
func ConsumeState(state string) bool {
	stateStoreMu.Lock()
	entry, ok := stateStore[state]
	if ok {
		delete(stateStore, state)
	}
	stateStoreMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if ok && time.Now().Before(entry.expiresAt) {
		// Consume the Redis mirror as well so no other instance accepts it.
		_ = GetRedis().Del(ctx, "oauth:state:"+state).Err()
		return true
	}

	// The redirect may have been issued by another instance.
	if v, err := GetRedis().GetDel(ctx, "oauth:state:"+state).Result(); err == nil {
		return v != ""
	}
	return false
}
