package health

import (
	"errors"
	"net"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStripeCheck(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := mocks.NewMockClient(t)
		client.On("CheckBalance", mock.Anything).Return(nil).Once()

		err := StripeCheck(client)(t.Context())

		assert.NoError(t, err)
	})

	t.Run("Failure - Gateway Error", func(t *testing.T) {
		client := mocks.NewMockClient(t)
		client.On("CheckBalance", mock.Anything).Return(errors.New("unauthorized")).Once()

		err := StripeCheck(client)(t.Context())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to stripe")
	})

	t.Run("Failure - No Client", func(t *testing.T) {
		err := StripeCheck(nil)(t.Context())

		assert.EqualError(t, err, "stripe client is not initialized")
	})
}

func TestKafkaCheck(t *testing.T) {
	t.Run("Failure - No Broker Reachable", func(t *testing.T) {
		// grab a free port and close it so nothing is listening
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		listener.Close()

		err = KafkaCheck([]string{addr})(t.Context())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no kafka broker reachable")
	})
}
