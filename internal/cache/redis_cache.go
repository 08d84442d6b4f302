package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client redis.UniversalClient
	cfg    *config.CacheConfig
}

func NewRedisCache(client redis.UniversalClient, cfg *config.CacheConfig) Cache {
	return &redisCache{
		client: client,
		cfg:    cfg,
	}
}

func (r *redisCache) Get(ctx context.Context, key string, value any) (bool, error) {

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {

		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get key %s from redis: %w", key, err)

	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil

}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys %s from redis: %w", strings.Join(keys, ","), err)
	}

	return nil

}

func (r *redisCache) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {

	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}

	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to extend key %s in redis: %w", key, err)
	}

	return ok, nil
}

// Close is a no-op; the redis client is owned and closed by main.
func (r *redisCache) Close() error {
	return nil
}
