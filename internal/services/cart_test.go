package service_test

import (
	"errors"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var guest = models.Principal{SessionKey: "sess-1"}

func activeProduct(id int64, price string) *models.Product {
	return &models.Product{
		ID:     id,
		Name:   "Widget",
		Price:  decimal.RequireFromString(price),
		Status: models.ProductStatusActive,
	}
}

func requireAppError(t *testing.T, err error, code string) *appErrors.AppError {
	t.Helper()

	require.Error(t, err)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected *AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)

	return appErr
}

func TestCartService_AddLine(t *testing.T) {
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)
		cart := newCart()

		products.On("GetProductByID", mock.Anything, int64(1)).Return(activeProduct(1, "10.00"), nil).Once()
		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("UpsertLine", mock.Anything, cart.ID, int64(1), 2, false).Return(3, nil).Once()

		// Act
		got, err := cartService.AddLine(ctx, guest, 1, 2, false)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ProductID)
		assert.Equal(t, 3, got.Quantity)
		assert.True(t, decimal.RequireFromString("10").Equal(got.UnitPrice))
	})

	t.Run("Failure - Invalid Quantity", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)

		got, err := cartService.AddLine(ctx, guest, 1, 0, false)

		assert.Nil(t, got)
		requireAppError(t, err, appErrors.ErrCodeInvalidQuantity)
	})

	t.Run("Success - Replace With Zero Removes Existing Line", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("RemoveLine", mock.Anything, cart.ID, int64(1)).Return(nil).Once()

		got, err := cartService.AddLine(ctx, guest, 1, 0, true)

		require.NoError(t, err)
		assert.Nil(t, got)
		products.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
		carts.AssertNotCalled(t, "UpsertLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Replace With Zero On New Line", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()

		got, err := cartService.AddLine(ctx, guest, 5, 0, true)

		assert.Nil(t, got)
		requireAppError(t, err, appErrors.ErrCodeInvalidQuantity)
		carts.AssertNotCalled(t, "RemoveLine", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Replace Removal Error", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))
		dbErr := errors.New("connection reset")

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("RemoveLine", mock.Anything, cart.ID, int64(1)).Return(dbErr).Once()

		_, err := cartService.AddLine(ctx, guest, 1, 0, true)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("Failure - Product Not Found", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)

		products.On("GetProductByID", mock.Anything, int64(9)).Return(nil, repository.ErrProductNotFound).Once()

		got, err := cartService.AddLine(ctx, guest, 9, 1, false)

		assert.Nil(t, got)
		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("Failure - Inactive Product", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)

		product := activeProduct(1, "10.00")
		product.Status = "archived"
		products.On("GetProductByID", mock.Anything, int64(1)).Return(product, nil).Once()

		got, err := cartService.AddLine(ctx, guest, 1, 1, false)

		assert.Nil(t, got)
		appErr := requireAppError(t, err, appErrors.ErrCodeBadRequest)
		assert.Equal(t, "Product is not available", appErr.Message)
	})

	t.Run("Failure - Upsert Error", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		products := mocks.NewMockProductRepository(t)
		cartService := service.NewCartService(carts, products)
		cart := newCart()
		dbErr := errors.New("connection reset")

		products.On("GetProductByID", mock.Anything, int64(1)).Return(activeProduct(1, "10.00"), nil).Once()
		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("UpsertLine", mock.Anything, cart.ID, int64(1), 1, true).Return(0, dbErr).Once()

		_, err := cartService.AddLine(ctx, guest, 1, 1, true)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("UpdateLineQuantity", mock.Anything, cart.ID, int64(1), 5).Return(nil).Once()

		got, err := cartService.UpdateQuantity(ctx, guest, 1, 5)

		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)
	})

	t.Run("Success - Zero Removes The Line", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("RemoveLine", mock.Anything, cart.ID, int64(1)).Return(nil).Once()

		got, err := cartService.UpdateQuantity(ctx, guest, 1, 0)

		require.NoError(t, err)
		assert.Nil(t, got)
		carts.AssertNotCalled(t, "UpdateLineQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success - Negative Removes The Line", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("RemoveLine", mock.Anything, cart.ID, int64(1)).Return(nil).Once()

		got, err := cartService.UpdateQuantity(ctx, guest, 1, -3)

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Failure - Line Not In Cart", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()

		got, err := cartService.UpdateQuantity(ctx, guest, 7, 2)

		assert.Nil(t, got)
		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("Failure - Line Removed Concurrently", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart(line(1, 2, "10.00"))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(cart, nil).Once()
		carts.On("UpdateLineQuantity", mock.Anything, cart.ID, int64(1), 4).Return(repository.ErrCartLineNotFound).Once()

		_, err := cartService.UpdateQuantity(ctx, guest, 1, 4)

		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})
}

func TestCartService_RemoveAndClear(t *testing.T) {
	ctx := t.Context()

	t.Run("Remove - Cart Load Error", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))

		carts.On("GetOrCreateCart", mock.Anything, guest).Return(nil, errors.New("down")).Once()

		err := cartService.RemoveLine(ctx, guest, 1)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
	})

	t.Run("Clear - Success", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart()

		carts.On("ClearCart", mock.Anything, cart.ID).Return(nil).Once()

		assert.NoError(t, cartService.Clear(ctx, cart.ID))
	})

	t.Run("Clear - Database Error", func(t *testing.T) {
		carts := mocks.NewMockCartRepository(t)
		cartService := service.NewCartService(carts, mocks.NewMockProductRepository(t))
		cart := newCart()

		carts.On("ClearCart", mock.Anything, cart.ID).Return(errors.New("down")).Once()

		err := cartService.Clear(ctx, cart.ID)

		appErr := requireAppError(t, err, appErrors.ErrCodeDatabaseError)
		assert.Equal(t, "Failed to clear cart", appErr.Message)
	})
}
