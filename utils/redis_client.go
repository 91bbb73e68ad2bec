package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
)

var (
	redisMu     sync.Mutex
	redisClient *redis.Client
)

// GetRedis returns the shared Redis client, dialing it on first use. Redis
// backs list caches, rate limiting and sync run state; callers treat a dead
// connection as a miss, so an unreachable server only disables those layers.
func GetRedis() *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient != nil {
		return redisClient
	}

	cfg := config.Get()
	redisClient = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis unreachable at boot, caching and limits degrade: %v", err)
	}
	return redisClient
}

// CloseRedis releases the shared client. Safe to call when none was dialed.
func CloseRedis() {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}
