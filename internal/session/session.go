// Package session keeps per-visitor key/value state between requests.
package session

import (
	"context"
)

const (
	KeyCartSignature   = "cart_signature"
	KeyPaymentIntentID = "payment_intent_id"
	KeyClientSecret    = "client_secret"
	KeyOrderID         = "order_id"
)

// Store is the state of a single session. Writes are last-writer-wins.
type Store interface {
	ID() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Backend opens sessions by id.
type Backend interface {
	Open(id string) Store
	// Touch slides the session expiry forward.
	Touch(ctx context.Context, id string) error
}

type contextKey struct{}

func WithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

func FromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(contextKey{}).(Store)

	return store, ok
}
