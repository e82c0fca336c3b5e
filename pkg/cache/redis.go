package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewRedis returns a configured Redis client, verifying connectivity before handing it out.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return client, nil
}

// NewOptionalRedis returns nil when caching is disabled so callers can degrade to direct reads.
func NewOptionalRedis(enabled bool, cfg config.RedisConfig) (*redis.Client, error) {
	if !enabled {
		return nil, nil
	}
	return NewRedis(cfg)
}
