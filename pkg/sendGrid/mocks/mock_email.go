package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockEmailService is a testify mock of sendGrid.EmailService.
type MockEmailService struct {
	mock.Mock
}

func NewMockEmailService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEmailService {
	m := &MockEmailService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockEmailService) Send(ctx context.Context, msg *models.EmailMessage) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}
