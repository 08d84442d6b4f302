package service_test

import (
	"testing"

	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentSessionCache(t *testing.T) {
	ctx := t.Context()
	cache := service.NewPaymentSessionCache()

	t.Run("Load - Empty Session", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")

		ps, found, err := cache.Load(ctx, sess)

		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, ps.PaymentIntentID)
	})

	t.Run("Store Then Load", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")
		cart := newCart(line(1, 2, "10.00"))

		require.NoError(t, cache.Store(ctx, sess, cart, "pi_123", "pi_123_secret_abc"))

		ps, found, err := cache.Load(ctx, sess)

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "pi_123", ps.PaymentIntentID)
		assert.Equal(t, "pi_123_secret_abc", ps.ClientSecret)
		assert.Equal(t, service.ComputeSignature(cart), ps.CartSignature)
	})

	t.Run("Load - Partial Entry Is Not Found", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")
		require.NoError(t, sess.Set(ctx, session.KeyPaymentIntentID, "pi_123"))

		_, found, err := cache.Load(ctx, sess)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("IsValid - Same Cart", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")
		cart := newCart(line(1, 2, "10.00"))
		require.NoError(t, cache.Store(ctx, sess, cart, "pi_123", "secret"))

		valid, err := cache.IsValid(ctx, sess, newCart(line(1, 2, "10.00")))

		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("IsValid - Cart Changed", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")
		require.NoError(t, cache.Store(ctx, sess, newCart(line(1, 2, "10.00")), "pi_123", "secret"))

		valid, err := cache.IsValid(ctx, sess, newCart(line(1, 3, "10.00")))

		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("IsValid - Nothing Cached", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")

		valid, err := cache.IsValid(ctx, sess, newCart(line(1, 2, "10.00")))

		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("Clear", func(t *testing.T) {
		sess := session.NewMemoryBackend().Open("s1")
		require.NoError(t, cache.Store(ctx, sess, newCart(line(1, 1, "1.00")), "pi_123", "secret"))
		require.NoError(t, sess.Set(ctx, session.KeyOrderID, "42"))

		require.NoError(t, cache.Clear(ctx, sess))

		_, found, err := cache.Load(ctx, sess)
		require.NoError(t, err)
		assert.False(t, found)

		for _, key := range []string{session.KeyCartSignature, session.KeyPaymentIntentID, session.KeyClientSecret} {
			_, ok, _ := sess.Get(ctx, key)
			assert.False(t, ok, key)
		}

		orderID, ok, _ := sess.Get(ctx, session.KeyOrderID)
		assert.True(t, ok)
		assert.Equal(t, "42", orderID)
	})
}
