package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Principal identifies who owns a cart. SessionKey is always set; when UserID
// is present the cart belongs to the user instead of the session.
type Principal struct {
	UserID     *uuid.UUID
	SessionKey string
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != nil
}

func (p Principal) String() string {
	if p.UserID != nil {
		return "user:" + p.UserID.String()
	}

	return "session:" + p.SessionKey
}

type CartLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.NullUUID  `json:"-"`
	SessionKey sql.NullString `json:"-"`
	Lines      []CartLine     `json:"lines"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TotalPrice is recomputed from the lines on every call.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero

	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}

	return total
}

func (c *Cart) ItemCount() int {
	count := 0

	for _, line := range c.Lines {
		count += line.Quantity
	}

	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Line(productID int64) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}

	return CartLine{}, false
}

type AddLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
	Replace  bool `json:"replace"`
}

type UpdateLineRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	ID         uuid.UUID       `json:"id"`
	Lines      []CartLine      `json:"lines"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

func NewCartResponse(cart *Cart) *CartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []CartLine{}
	}

	return &CartResponse{
		ID:         cart.ID,
		Lines:      lines,
		TotalPrice: cart.TotalPrice(),
		ItemCount:  cart.ItemCount(),
	}
}
