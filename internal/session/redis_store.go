package session

import (
	"context"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
)

type RedisBackend struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewRedisBackend(c cache.Cache, ttl time.Duration) *RedisBackend {
	return &RedisBackend{cache: c, ttl: ttl}
}

func (b *RedisBackend) Open(id string) Store {
	return &redisStore{backend: b, id: id}
}

func (b *RedisBackend) Touch(ctx context.Context, id string) error {
	if _, err := b.cache.Touch(ctx, cache.Key(cache.SessionKeyPrefix, id), b.ttl); err != nil {
		return fmt.Errorf("failed to extend session %s: %w", id, err)
	}

	return nil
}

// redisStore keeps the whole session as one JSON object under session:<id>.
type redisStore struct {
	backend *RedisBackend
	id      string
}

func (s *redisStore) ID() string {
	return s.id
}

func (s *redisStore) key() string {
	return cache.Key(cache.SessionKeyPrefix, s.id)
}

func (s *redisStore) load(ctx context.Context) (map[string]string, error) {
	values := map[string]string{}

	if _, err := s.backend.cache.Get(ctx, s.key(), &values); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return values, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	values, err := s.load(ctx)
	if err != nil {
		return "", false, err
	}

	value, ok := values[key]

	return value, ok, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	values, err := s.load(ctx)
	if err != nil {
		return err
	}

	values[key] = value

	if err := s.backend.cache.Set(ctx, s.key(), values, s.backend.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	values, err := s.load(ctx)
	if err != nil {
		return err
	}

	removed := 0

	for _, key := range keys {
		if _, ok := values[key]; ok {
			delete(values, key)
			removed++
		}
	}

	switch {
	case removed == 0:
		return nil
	case len(values) == 0:
		err = s.backend.cache.Delete(ctx, s.key())
	default:
		err = s.backend.cache.Set(ctx, s.key(), values, s.backend.ttl)
	}

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
