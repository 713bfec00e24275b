// Package redis owns the cache store connection used by the fallback auth
// manager. A failed initial ping is logged but not fatal: the service starts
// degraded and the fallback manager keeps probing connectivity on its own.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// Connect builds the client and probes the server once.
func Connect(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn(ctx, "redis unreachable at startup, fallback cache degraded", logger.Fields{
			"addr":  cfg.Addr,
			"error": err.Error(),
		})
	} else {
		log.Info(ctx, "connected to redis", logger.Fields{"addr": cfg.Addr})
	}
	return client
}
