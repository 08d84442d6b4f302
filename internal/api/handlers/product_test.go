package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/testutils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var guest = models.Principal{SessionKey: "sess-1"}

// newTestRequest -> creates a request carrying the guest principal and its session
func newTestRequest(method, target string, body []byte) (*http.Request, session.Store) {
	return testutils.CreateShopRequest(method, target, body, guest)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) response.APIResponse {
	t.Helper()
	return testutils.DecodeEnvelope(t, rr, data)
}

func TestGetProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		product := &models.Product{ID: 7, Name: "Widget", Price: decimal.RequireFromString("12.50"), Status: models.ProductStatusActive}
		productService.On("GetProductByID", mock.Anything, int64(7)).Return(product, nil).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products/7", nil)
		req.SetPathValue("id", "7")
		rr := httptest.NewRecorder()

		// Act
		productHandler.GetProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.Product
		resp := decodeEnvelope(t, rr, &got)
		assert.True(t, resp.Success)
		assert.Equal(t, "Widget", got.Name)
		assert.True(t, product.Price.Equal(got.Price))
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products/abc", nil)
		req.SetPathValue("id", "abc")
		rr := httptest.NewRecorder()

		productHandler.GetProduct().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		productService.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		productService.On("GetProductByID", mock.Anything, int64(9)).Return(nil, appErrors.NotFoundError("Product not found")).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products/9", nil)
		req.SetPathValue("id", "9")
		rr := httptest.NewRecorder()

		productHandler.GetProduct().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestListProducts(t *testing.T) {
	t.Run("Success - Defaults", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		list := []*models.Product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
		productService.On("ListProducts", mock.Anything, 1, 10).Return(list, 2, nil).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products", nil)
		rr := httptest.NewRecorder()

		productHandler.ListProducts().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var page struct {
			Data       []models.Product `json:"data"`
			Total      int              `json:"total"`
			Page       int              `json:"page"`
			PageSize   int              `json:"page_size"`
			TotalPages int              `json:"total_pages"`
		}
		decodeEnvelope(t, rr, &page)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.PageSize)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("Success - Page Size Is Capped", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		productService.On("ListProducts", mock.Anything, 3, 100).Return([]*models.Product{}, 0, nil).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products?page=3&page_size=1000", nil)
		rr := httptest.NewRecorder()

		productHandler.ListProducts().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		productService := mocks.NewMockProductService(t)
		productHandler := handlers.NewProductHandler(productService)

		productService.On("ListProducts", mock.Anything, 1, 10).Return(nil, 0, errors.New("boom")).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/products", nil)
		rr := httptest.NewRecorder()

		productHandler.ListProducts().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeInternal, resp.Error.Code)
	})
}
