package cache

import (
	"context"
	"time"
)

// Cache stores JSON encoded values under string keys.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Touch pushes the expiry of an existing key forward. It reports false when the key is gone.
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	SessionKeyPrefix          = "session"
	ProductKeyPrefix          = "product"
	CheckoutAttemptsKeyPrefix = "checkout_attempts"
)
