// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"artisanhub/config"

	"github.com/go-redis/redis/v8"
)

// PresenceCacheClient mirrors presence entries so that additional server
// instances (and the reminder worker) can observe who is online.
var PresenceCacheClient *redis.Client

// InitPresenceCache initializes the Redis client backing the presence mirror.
func InitPresenceCache() {
	PresenceCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPresenceDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := PresenceCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Presence): %v", err)
	}
}

// GetPresenceCacheClient returns the presence mirror client.
func GetPresenceCacheClient() *redis.Client {
	if PresenceCacheClient == nil {
		InitPresenceCache()
	}
	return PresenceCacheClient
}
