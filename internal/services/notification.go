package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/sendGrid"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) (*models.Notification, error)
	ListOrderNotifications(ctx context.Context, orderID int64) ([]*models.Notification, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	emailService sendGrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, emailService sendGrid.EmailService) NotificationService {
	return &notificationService{repo: repo, emailService: emailService}
}

// SendOrderConfirmation records the email before sending it so a failed
// delivery still leaves a row an operator can retry from.
func (n *notificationService) SendOrderConfirmation(ctx context.Context, order *models.Order) (*models.Notification, error) {

	logger := middleware.LoggerFromContext(ctx)

	notification := &models.Notification{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Type:      models.NotificationTypeEmail,
		Recipient: order.Email,
		Subject:   fmt.Sprintf("Your order %s is confirmed", order.OrderNumber),
		Content:   orderConfirmationBody(order),
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification record: %w", err)
	}

	err := n.emailService.Send(ctx, &models.EmailMessage{
		Recipient: notification.Recipient,
		Subject:   notification.Subject,
		Content:   notification.Content,
	})

	if err != nil {

		notification.Status = models.StatusFailed
		notification.ErrorMessage = err.Error()

		if updateErr := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusFailed, notification.ErrorMessage); updateErr != nil {
			logger.Error("Failed to record email failure", slog.String("notification_id", notification.ID.String()), slog.Any("error", updateErr))
		}

		return notification, fmt.Errorf("failed to send email: %w", err)

	}

	notification.Status = models.StatusSent

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusSent, ""); err != nil {
		return notification, fmt.Errorf("notification sent successfully but failed to update notification status: %w", err)
	}

	logger.Info("Order confirmation sent", slog.String("order_number", order.OrderNumber))

	return notification, nil

}

func (n *notificationService) ListOrderNotifications(ctx context.Context, orderID int64) ([]*models.Notification, error) {

	return n.repo.ListByOrder(ctx, orderID)

}

func orderConfirmationBody(order *models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", order.FullName, order.OrderNumber)

	for _, line := range order.Lines {
		fmt.Fprintf(&b, "  product #%d  x%d  %s\n", line.ProductID, line.Quantity, line.Price.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nTotal: %s %s\n", order.GrandTotal.StringFixed(2), strings.ToUpper(order.Currency))
	fmt.Fprintf(&b, "\nShipping to:\n%s\n%s\n", order.FullName, order.AddressLine1)

	if order.AddressLine2 != "" {
		fmt.Fprintf(&b, "%s\n", order.AddressLine2)
	}

	fmt.Fprintf(&b, "%s, %s %s\n%s\n", order.City, order.State, order.PostalCode, order.Country)

	return b.String()
}
