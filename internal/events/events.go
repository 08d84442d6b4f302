// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const TypeOrderCreated = "order.created"

type Publisher interface {
	Publish(ctx context.Context, key string, event *Envelope) error
	Close() error
}

type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreated struct {
	OrderID         int64           `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Email           string          `json:"email"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Currency        string          `json:"currency"`
	Lines           []OrderLine     `json:"lines"`
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *Envelope) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
