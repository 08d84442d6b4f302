package service

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
)

type signatureItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type signatureDocument struct {
	Items      []signatureItem `json:"items"`
	TotalPrice string          `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// ComputeSignature fingerprints the priced contents of a cart. Two carts with
// the same lines, quantities and prices hash the same regardless of line order.
func ComputeSignature(cart *models.Cart) string {
	doc := signatureDocument{
		Items:      make([]signatureItem, 0, len(cart.Lines)),
		TotalPrice: cart.TotalPrice().StringFixed(2),
		ItemCount:  cart.ItemCount(),
	}

	for _, line := range cart.Lines {
		doc.Items = append(doc.Items, signatureItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice.StringFixed(2),
		})
	}

	slices.SortFunc(doc.Items, func(a, b signatureItem) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})

	// struct fields marshal in declaration order, so the encoding is stable
	payload, _ := json.Marshal(doc)

	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}
