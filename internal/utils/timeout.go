package utils

import (
	"context"
	"time"
)

// DefaultDBTimeout bounds a single repository call. Each PlaceOrder attempt shares one
// deadline across its transaction.
const DefaultDBTimeout = 5 * time.Second

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDBTimeout)
}
