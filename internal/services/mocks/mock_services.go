package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ service.CartService     = (*MockCartService)(nil)
	_ service.ProductService  = (*MockProductService)(nil)
	_ service.CheckoutService = (*MockCheckoutService)(nil)
	_ service.PaymentService  = (*MockPaymentService)(nil)
)

func track[M interface{ AssertExpectations(mock.TestingT) bool }](t testingT, m M) M {
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

type MockCartService struct {
	mock.Mock
}

func NewMockCartService(t testingT) *MockCartService {
	m := &MockCartService{}
	m.Mock.Test(t)

	return track(t, m)
}

func (m *MockCartService) GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error) {
	args := m.Called(ctx, principal)

	var cart *models.Cart
	if v := args.Get(0); v != nil {
		cart = v.(*models.Cart)
	}

	return cart, args.Error(1)
}

func (m *MockCartService) AddLine(ctx context.Context, principal models.Principal, productID int64, quantity int, replace bool) (*models.CartLine, error) {
	args := m.Called(ctx, principal, productID, quantity, replace)

	var line *models.CartLine
	if v := args.Get(0); v != nil {
		line = v.(*models.CartLine)
	}

	return line, args.Error(1)
}

func (m *MockCartService) RemoveLine(ctx context.Context, principal models.Principal, productID int64) error {
	args := m.Called(ctx, principal, productID)

	return args.Error(0)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, principal models.Principal, productID int64, quantity int) (*models.CartLine, error) {
	args := m.Called(ctx, principal, productID, quantity)

	var line *models.CartLine
	if v := args.Get(0); v != nil {
		line = v.(*models.CartLine)
	}

	return line, args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

type MockProductService struct {
	mock.Mock
}

func NewMockProductService(t testingT) *MockProductService {
	m := &MockProductService{}
	m.Mock.Test(t)

	return track(t, m)
}

func (m *MockProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)

	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}

	return product, args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, pageSize)

	var products []*models.Product
	if v := args.Get(0); v != nil {
		products = v.([]*models.Product)
	}

	return products, args.Int(1), args.Error(2)
}

type MockCheckoutService struct {
	mock.Mock
}

func NewMockCheckoutService(t testingT) *MockCheckoutService {
	m := &MockCheckoutService{}
	m.Mock.Test(t)

	return track(t, m)
}

func (m *MockCheckoutService) Prepare(ctx context.Context, principal models.Principal, sess session.Store) (*models.CheckoutPage, error) {
	args := m.Called(ctx, principal, sess)

	var page *models.CheckoutPage
	if v := args.Get(0); v != nil {
		page = v.(*models.CheckoutPage)
	}

	return page, args.Error(1)
}

func (m *MockCheckoutService) Submit(ctx context.Context, principal models.Principal, sess session.Store, form *models.CheckoutForm) (*models.CheckoutResult, error) {
	args := m.Called(ctx, principal, sess, form)

	var result *models.CheckoutResult
	if v := args.Get(0); v != nil {
		result = v.(*models.CheckoutResult)
	}

	return result, args.Error(1)
}

func (m *MockCheckoutService) Confirmation(ctx context.Context, sess session.Store) (*models.Order, error) {
	args := m.Called(ctx, sess)

	var order *models.Order
	if v := args.Get(0); v != nil {
		order = v.(*models.Order)
	}

	return order, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func NewMockPaymentService(t testingT) *MockPaymentService {
	m := &MockPaymentService{}
	m.Mock.Test(t)

	return track(t, m)
}

func (m *MockPaymentService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)

	var result *models.WebhookResult
	if v := args.Get(0); v != nil {
		result = v.(*models.WebhookResult)
	}

	return result, args.Error(1)
}
