package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
)

// RateLimiter reports whether a session may submit another checkout.
type RateLimiter interface {
	CheckCheckoutRateLimit(ctx context.Context, sessionID string) (bool, int, int, error)
}

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	rateLimiter     RateLimiter
}

// NewCheckoutHandler accepts a nil rateLimiter, which disables submission limits.
func NewCheckoutHandler(checkoutService service.CheckoutService, rateLimiter RateLimiter) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, rateLimiter: rateLimiter}
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Page() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		principal, sess, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		page, err := h.checkoutService.Prepare(r.Context(), principal, sess)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, page)

	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		principal, sess, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		if h.rateLimiter != nil {
			allowed, remaining, retryAfter, err := h.rateLimiter.CheckCheckoutRateLimit(r.Context(), sess.ID())

			switch {
			case err != nil:
				// a limiter outage must not stop customers from paying
				logger.Error("Checkout rate limit check failed", slog.Any("error", err))
			case !allowed:
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.Error(w, appErrors.TooManyRequestsError("Too many checkout attempts, please wait before trying again"))
				return
			default:
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			}
		}

		var form models.CheckoutForm
		if err := utils.DecodeCheckoutForm(r, &form); err != nil {
			logger.Warn("Invalid checkout body", slog.String("error", err.Error()))
			response.Error(w, appErrors.BadRequestError(err.Error()).WithRedirect(appErrors.RedirectCheckout))
			return
		}

		result, err := h.checkoutService.Submit(r.Context(), principal, sess, &form)
		if err != nil {
			response.Error(w, err)
			return
		}

		w.Header().Set("Location", result.RedirectTo)
		response.Success(w, http.StatusCreated, result)

	}
}

// GET /api/v1/checkout/confirmation
func (h *CheckoutHandler) Confirmation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, sess, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		order, err := h.checkoutService.Confirmation(r.Context(), sess)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.OrderResponse{Order: order})

	}
}
