package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
)

// Stripe rejects webhook payloads larger than this.
const maxWebhookBodyBytes = 65536

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// POST /api/v1/payments/webhook
func (h *PaymentHandler) HandleStripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			logger.Warn("Failed to read webhook body", slog.Any("error", err))
			response.Error(w, appErrors.BadRequestError("Failed to read request body"))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			response.Error(w, appErrors.BadRequestError("Missing Stripe-Signature header"))
			return
		}

		result, err := h.paymentService.ProcessWebhook(r.Context(), payload, signature)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Webhook processed",
			slog.String("event_id", result.EventID),
			slog.String("event_type", result.EventType),
			slog.Bool("applied", result.Applied),
		)
		response.Success(w, http.StatusOK, result)

	}
}
