package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repoMocks "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories/mocks"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const checkoutJSON = `{
	"full_name": "Ada Lovelace",
	"email": "ada@example.com",
	"phone": "+44 20 7946 0000",
	"address_line1": "1 Analytical Way",
	"city": "London",
	"state": "LDN",
	"postal_code": "N1 9GU",
	"country": "GB",
	"client_secret": "pi_123_secret_abc"
}`

func TestCheckoutPage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		page := &models.CheckoutPage{PublishableKey: "pk_test_1", ClientSecret: "secret_abc", PaymentIntentID: "pi_123"}
		checkoutService.On("Prepare", mock.Anything, guest, mock.Anything).Return(page, nil).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/checkout", nil)
		rr := httptest.NewRecorder()

		checkoutHandler.Page().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.CheckoutPage
		decodeEnvelope(t, rr, &got)
		assert.Equal(t, "secret_abc", got.ClientSecret)
		assert.Equal(t, "pk_test_1", got.PublishableKey)
	})

	t.Run("Failure - Empty Cart Redirects", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Prepare", mock.Anything, guest, mock.Anything).Return(nil, appErrors.EmptyCartError()).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/checkout", nil)
		rr := httptest.NewRecorder()

		checkoutHandler.Page().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, resp.Error.Code)
		assert.Equal(t, appErrors.RedirectCart, resp.Error.RedirectTo)
	})

	t.Run("Failure - Gateway Unavailable", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Prepare", mock.Anything, guest, mock.Anything).
			Return(nil, appErrors.PaymentGatewayUnavailableError("Payments are temporarily unavailable")).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/checkout", nil)
		rr := httptest.NewRecorder()

		checkoutHandler.Page().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestCheckoutSubmit(t *testing.T) {
	t.Run("Success - JSON Body", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		limiter := repoMocks.NewMockRateLimitRepository(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, limiter)

		limiter.On("CheckCheckoutRateLimit", mock.Anything, "sess-1").Return(true, 9, 0, nil).Once()
		checkoutService.On("Submit", mock.Anything, guest, mock.Anything, mock.MatchedBy(func(f *models.CheckoutForm) bool {
			return f.Email == "ada@example.com" && f.ClientSecret == "pi_123_secret_abc"
		})).Return(&models.CheckoutResult{OrderID: 42, OrderNumber: "ORD-1", RedirectTo: "/api/v1/checkout/confirmation"}, nil).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(checkoutJSON))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "/api/v1/checkout/confirmation", rr.Header().Get("Location"))
		assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))

		var got models.CheckoutResult
		decodeEnvelope(t, rr, &got)
		assert.Equal(t, int64(42), got.OrderID)
	})

	t.Run("Success - Form Body", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		form := url.Values{
			"full_name": {"Ada Lovelace"},
			"email":     {"ada@example.com"},
			"country":   {"GB"},
		}

		checkoutService.On("Submit", mock.Anything, guest, mock.Anything, mock.MatchedBy(func(f *models.CheckoutForm) bool {
			return f.FullName == "Ada Lovelace" && f.Country == "GB"
		})).Return(&models.CheckoutResult{OrderID: 1, RedirectTo: "/api/v1/checkout/confirmation"}, nil).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		limiter := repoMocks.NewMockRateLimitRepository(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, limiter)

		limiter.On("CheckCheckoutRateLimit", mock.Anything, "sess-1").Return(false, 0, 40, nil).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(checkoutJSON))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "40", rr.Header().Get("Retry-After"))
		checkoutService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success - Limiter Outage Fails Open", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		limiter := repoMocks.NewMockRateLimitRepository(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, limiter)

		limiter.On("CheckCheckoutRateLimit", mock.Anything, "sess-1").Return(false, 0, 0, errors.New("redis down")).Once()
		checkoutService.On("Submit", mock.Anything, guest, mock.Anything, mock.Anything).
			Return(&models.CheckoutResult{OrderID: 1, RedirectTo: "/api/v1/checkout/confirmation"}, nil).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(checkoutJSON))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Failure - Bad JSON", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(`{"email":`))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.RedirectCheckout, resp.Error.RedirectTo)
	})

	t.Run("Failure - Invalid Fields Are Reported", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Submit", mock.Anything, guest, mock.Anything, mock.Anything).
			Return(nil, appErrors.ValidationError("Please correct the highlighted fields").WithFields("email")).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(strings.Replace(checkoutJSON, "ada@example.com", "nope", 1)))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, []string{"email"}, resp.Error.Fields)
	})

	t.Run("Failure - Commit Failed", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Submit", mock.Anything, guest, mock.Anything, mock.Anything).
			Return(nil, appErrors.OrderCommitFailedError("We could not place your order, please try again")).Once()

		req, _ := newTestRequest(http.MethodPost, "/api/v1/checkout", []byte(checkoutJSON))
		rr := httptest.NewRecorder()

		checkoutHandler.Submit().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeOrderCommitFailed, resp.Error.Code)
		assert.Equal(t, appErrors.RedirectCheckout, resp.Error.RedirectTo)
	})
}

func TestCheckoutConfirmation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Confirmation", mock.Anything, mock.Anything).
			Return(&models.Order{ID: 42, OrderNumber: "ORD-1"}, nil).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/checkout/confirmation", nil)
		rr := httptest.NewRecorder()

		checkoutHandler.Confirmation().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.OrderResponse
		decodeEnvelope(t, rr, &got)
		require.NotNil(t, got.Order)
		assert.Equal(t, "ORD-1", got.Order.OrderNumber)
	})

	t.Run("Failure - Nothing To Confirm", func(t *testing.T) {
		checkoutService := mocks.NewMockCheckoutService(t)
		checkoutHandler := handlers.NewCheckoutHandler(checkoutService, nil)

		checkoutService.On("Confirmation", mock.Anything, mock.Anything).
			Return(nil, appErrors.NotFoundError("No recent order in this session").WithRedirect(appErrors.RedirectCart)).Once()

		req, _ := newTestRequest(http.MethodGet, "/api/v1/checkout/confirmation", nil)
		rr := httptest.NewRecorder()

		checkoutHandler.Confirmation().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeEnvelope(t, rr, nil)
		assert.Equal(t, appErrors.RedirectCart, resp.Error.RedirectTo)
	})
}
