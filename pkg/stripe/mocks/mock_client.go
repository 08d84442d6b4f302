package mocks

import (
	"context"

	stripeclient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v81"
)

// MockClient is a testify mock of stripe.Client.
type MockClient struct {
	mock.Mock
}

func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockClient) CreatePaymentIntent(ctx context.Context, params stripeclient.CreateIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, params)

	var intent *stripe.PaymentIntent
	if v := args.Get(0); v != nil {
		intent = v.(*stripe.PaymentIntent)
	}

	return intent, args.Error(1)
}

func (m *MockClient) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, id)

	var intent *stripe.PaymentIntent
	if v := args.Get(0); v != nil {
		intent = v.(*stripe.PaymentIntent)
	}

	return intent, args.Error(1)
}

func (m *MockClient) UpdatePaymentIntentMetadata(ctx context.Context, id string, metadata map[string]string) error {
	args := m.Called(ctx, id, metadata)

	return args.Error(0)
}

func (m *MockClient) VerifyWebhookSignature(ctx context.Context, payload []byte, signature string) (stripeclient.Event, error) {
	args := m.Called(ctx, payload, signature)

	return args.Get(0).(stripeclient.Event), args.Error(1)
}

func (m *MockClient) CheckBalance(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
