package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects the cache behind login rate limiting and
// idempotent account creation. An empty url means the service runs without
// Redis: it returns a nil client and nil error, and both features stay off.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	cache := redis.NewClient(opt)
	if err := cache.Ping(ctx).Err(); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opt.Addr, err)
	}
	return cache, nil
}
