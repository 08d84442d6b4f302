package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ repository.ProductRepository      = (*MockProductRepository)(nil)
	_ repository.CartRepository         = (*MockCartRepository)(nil)
	_ repository.OrderRepository        = (*MockOrderRepository)(nil)
	_ repository.NotificationRepository = (*MockNotificationRepository)(nil)
	_ repository.CredentialsRepository  = (*MockCredentialsRepository)(nil)
	_ repository.RateLimitRepository    = (*MockRateLimitRepository)(nil)
)

type MockProductRepository struct {
	mock.Mock
}

func NewMockProductRepository(t testingT) *MockProductRepository {
	m := &MockProductRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)

	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}

	return product, args.Error(1)
}

func (m *MockProductRepository) ListActiveProducts(ctx context.Context, page, size int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, size)

	var products []*models.Product
	if v := args.Get(0); v != nil {
		products = v.([]*models.Product)
	}

	return products, args.Int(1), args.Error(2)
}

type MockCartRepository struct {
	mock.Mock
}

func NewMockCartRepository(t testingT) *MockCartRepository {
	m := &MockCartRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCartRepository) GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error) {
	args := m.Called(ctx, principal)

	var cart *models.Cart
	if v := args.Get(0); v != nil {
		cart = v.(*models.Cart)
	}

	return cart, args.Error(1)
}

func (m *MockCartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int, replace bool) (int, error) {
	args := m.Called(ctx, cartID, productID, quantity, replace)

	return args.Int(0), args.Error(1)
}

func (m *MockCartRepository) UpdateLineQuantity(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) error {
	args := m.Called(ctx, cartID, productID, quantity)

	return args.Error(0)
}

func (m *MockCartRepository) RemoveLine(ctx context.Context, cartID uuid.UUID, productID int64) error {
	args := m.Called(ctx, cartID, productID)

	return args.Error(0)
}

func (m *MockCartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository(t testingT) *MockOrderRepository {
	m := &MockOrderRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockOrderRepository) PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	args := m.Called(ctx, order, cartID)

	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)

	var order *models.Order
	if v := args.Get(0); v != nil {
		order = v.(*models.Order)
	}

	return order, args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {
	args := m.Called(ctx, paymentIntentID)

	var order *models.Order
	if v := args.Get(0); v != nil {
		order = v.(*models.Order)
	}

	return order, args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)

	return args.Error(0)
}

func (m *MockOrderRepository) UpdatePaymentAndOrderStatus(ctx context.Context, id int64, payment models.PaymentStatus, order models.OrderStatus) error {
	args := m.Called(ctx, id, payment, order)

	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func NewMockNotificationRepository(t testingT) *MockNotificationRepository {
	m := &MockNotificationRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)

	return args.Error(0)
}

func (m *MockNotificationRepository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error {
	args := m.Called(ctx, id, status, errorMsg)

	return args.Error(0)
}

func (m *MockNotificationRepository) ListByOrder(ctx context.Context, orderID int64) ([]*models.Notification, error) {
	args := m.Called(ctx, orderID)

	var notifications []*models.Notification
	if v := args.Get(0); v != nil {
		notifications = v.([]*models.Notification)
	}

	return notifications, args.Error(1)
}

type MockCredentialsRepository struct {
	mock.Mock
}

func NewMockCredentialsRepository(t testingT) *MockCredentialsRepository {
	m := &MockCredentialsRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCredentialsRepository) GetActiveCredentials(ctx context.Context, provider string) (*models.GatewayCredentials, bool, error) {
	args := m.Called(ctx, provider)

	var creds *models.GatewayCredentials
	if v := args.Get(0); v != nil {
		creds = v.(*models.GatewayCredentials)
	}

	return creds, args.Bool(1), args.Error(2)
}

type MockRateLimitRepository struct {
	mock.Mock
}

func NewMockRateLimitRepository(t testingT) *MockRateLimitRepository {
	m := &MockRateLimitRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockRateLimitRepository) CheckCheckoutRateLimit(ctx context.Context, sessionID string) (bool, int, int, error) {
	args := m.Called(ctx, sessionID)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}
