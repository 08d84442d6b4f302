package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
)

const (
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentProcessing = "payment_intent.processing"
	EventPaymentFailed     = "payment_intent.payment_failed"
	EventChargeRefunded    = "charge.refunded"
)

type PaymentService interface {
	// ProcessWebhook verifies a gateway event and applies it to the matching order.
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookResult, error)
}

type paymentService struct {
	orders  repository.OrderRepository
	gateway stripeClient.Client
}

func NewPaymentService(orders repository.OrderRepository, gateway stripeClient.Client) PaymentService {
	return &paymentService{orders: orders, gateway: gateway}
}

// ProcessWebhook implements PaymentService.
func (s *paymentService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookResult, error) {

	logger := middleware.LoggerFromContext(ctx)

	event, err := s.gateway.VerifyWebhookSignature(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, stripeClient.ErrNoWebhookSecret) || errors.Is(err, stripeClient.ErrNoAPIKey) {
			logger.Error("Webhook received but no endpoint secret is configured")
			return nil, appErrors.PaymentGatewayUnavailableError("Webhook endpoint is not configured").WithError(err)
		}

		logger.Warn("Webhook signature verification failed", slog.Any("error", err))
		return nil, appErrors.BadRequestError("Webhook signature verification failed").WithError(err)
	}

	result := &models.WebhookResult{EventID: event.ID, EventType: string(event.Type)}

	var target models.PaymentStatus

	switch event.Type {
	case EventPaymentSucceeded:
		target = models.PaymentStatusCompleted
	case EventPaymentProcessing:
		target = models.PaymentStatusProcessing
	case EventPaymentFailed:
		target = models.PaymentStatusFailed
	case EventChargeRefunded:
		target = models.PaymentStatusRefunded
	default:
		logger.Debug("Ignoring webhook event", slog.String("event_type", string(event.Type)))
		return result, nil
	}

	intentID, err := paymentIntentID(event)
	if err != nil {
		return nil, err
	}

	result.PaymentIntentID = intentID
	result.PaymentStatus = target

	order, found, err := s.orders.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to look up order for payment").WithError(err)
	}

	if !found {
		// intents are created before the order exists, an abandoned checkout has none
		logger.Info("No order for payment intent", slog.String("payment_intent_id", intentID), slog.String("event_type", result.EventType))
		return result, nil
	}

	if !canTransition(order.PaymentStatus, target) {
		logger.Info("Ignoring out-of-order payment event",
			slog.String("order_number", order.OrderNumber),
			slog.String("current", string(order.PaymentStatus)),
			slog.String("incoming", string(target)),
		)

		result.PaymentStatus = order.PaymentStatus
		return result, nil
	}

	// a captured payment moves a fresh order to paid in the same write
	if target == models.PaymentStatusCompleted && order.Status == models.OrderStatusCreated {
		err = s.orders.UpdatePaymentAndOrderStatus(ctx, order.ID, target, models.OrderStatusPaid)
	} else {
		err = s.orders.UpdatePaymentStatus(ctx, order.ID, target)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to update payment status").WithError(err)
	}

	logger.Info("Payment status updated",
		slog.String("order_number", order.OrderNumber),
		slog.String("payment_intent_id", intentID),
		slog.String("payment_status", string(target)),
	)

	result.Applied = true

	return result, nil
}

func paymentIntentID(event stripeClient.Event) (string, error) {
	if event.Data == nil || event.Data.Object == nil {
		return "", appErrors.BadRequestError("Webhook event has no data object")
	}

	field := "id"
	if event.Type == EventChargeRefunded {
		field = "payment_intent"
	}

	id, ok := event.Data.Object[field].(string)
	if !ok || id == "" {
		return "", appErrors.BadRequestError("Missing payment intent ID in webhook")
	}

	return id, nil
}

var paymentStatusRank = map[models.PaymentStatus]int{
	models.PaymentStatusPending:    0,
	models.PaymentStatusProcessing: 1,
	models.PaymentStatusFailed:     1,
	models.PaymentStatusCompleted:  2,
	models.PaymentStatusRefunded:   3,
}

// canTransition rejects moves to an earlier stage. Failed and processing
// share a stage because a failed payment may be retried on the same intent.
func canTransition(from, to models.PaymentStatus) bool {
	if from == to {
		return false
	}

	return paymentStatusRank[to] >= paymentStatusRank[from]
}
