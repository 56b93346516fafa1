// Package cache holds the optional redis-backed caches. Every cache degrades
// to its backing store when redis is unavailable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/logger"
)

const pingTimeout = 3 * time.Second

// Connect returns a redis client, or nil when cfg.Addr is empty.
func Connect(ctx context.Context, cfg config.Redis, log logger.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Info("redis not configured, tag count cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Addr, err)
	}

	log.Info("connected to redis", logger.String("addr", cfg.Addr))
	return client, nil
}
