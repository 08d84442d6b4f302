package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

type PaymentStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"

	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.NullUUID   `json:"user_id"`
	SessionKey      string          `json:"-"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	AddressLine1    string          `json:"address_line1"`
	AddressLine2    string          `json:"address_line2,omitempty"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	PostalCode      string          `json:"postal_code"`
	Country         string          `json:"country"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Currency        string          `json:"currency"`
	Lines           []OrderLine     `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CheckoutForm carries the shipping and contact fields posted with a checkout,
// plus the client secret of the payment intent the browser confirmed.
type CheckoutForm struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=200"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"required,min=7,max=32"`
	AddressLine1    string `json:"address_line1" validate:"required,max=255"`
	AddressLine2    string `json:"address_line2" validate:"omitempty,max=255"`
	City            string `json:"city" validate:"required,max=100"`
	State           string `json:"state" validate:"required,max=100"`
	PostalCode      string `json:"postal_code" validate:"required,max=20"`
	Country         string `json:"country" validate:"required,iso3166_1_alpha2"`
	PaymentMethodID string `json:"payment_method_id" validate:"omitempty,startswith=pm_"`
	ClientSecret    string `json:"client_secret"`
}

type OrderResponse struct {
	Order *Order `json:"order"`
}
