package service

import (
	"context"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
)

// PaymentSessionCache remembers which payment intent was created for which
// cart contents, so a page reload does not open a second intent.
type PaymentSessionCache struct{}

func NewPaymentSessionCache() *PaymentSessionCache {
	return &PaymentSessionCache{}
}

// Load returns the cached intent. found is false unless both the signature and
// the intent id are present.
func (c *PaymentSessionCache) Load(ctx context.Context, sess session.Store) (models.PaymentSession, bool, error) {
	var ps models.PaymentSession

	values := []struct {
		key  string
		dest *string
	}{
		{session.KeyCartSignature, &ps.CartSignature},
		{session.KeyPaymentIntentID, &ps.PaymentIntentID},
		{session.KeyClientSecret, &ps.ClientSecret},
	}

	for _, v := range values {
		value, _, err := sess.Get(ctx, v.key)
		if err != nil {
			return models.PaymentSession{}, false, fmt.Errorf("failed to read %s from session: %w", v.key, err)
		}

		*v.dest = value
	}

	found := ps.CartSignature != "" && ps.PaymentIntentID != ""

	return ps, found, nil
}

func (c *PaymentSessionCache) IsValid(ctx context.Context, sess session.Store, cart *models.Cart) (bool, error) {
	ps, found, err := c.Load(ctx, sess)
	if err != nil || !found {
		return false, err
	}

	return ps.CartSignature == ComputeSignature(cart), nil
}

func (c *PaymentSessionCache) Store(ctx context.Context, sess session.Store, cart *models.Cart, intentID, clientSecret string) error {
	values := [][2]string{
		{session.KeyCartSignature, ComputeSignature(cart)},
		{session.KeyPaymentIntentID, intentID},
		{session.KeyClientSecret, clientSecret},
	}

	for _, kv := range values {
		if err := sess.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to cache payment session: %w", err)
		}
	}

	return nil
}

func (c *PaymentSessionCache) Clear(ctx context.Context, sess session.Store) error {
	if err := sess.Delete(ctx, session.KeyCartSignature, session.KeyPaymentIntentID, session.KeyClientSecret); err != nil {
		return fmt.Errorf("failed to clear payment session: %w", err)
	}

	return nil
}
