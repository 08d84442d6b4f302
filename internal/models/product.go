package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const ProductStatusActive = "active"

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	SKU           string          `json:"sku"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
