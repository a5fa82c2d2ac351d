package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineIDSeparator joins the product id and the variant in a cart line id.
const LineIDSeparator = "::"

// CartLine is one purchasable variant held in the cart.
type CartLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Price  `json:"price"`
	ImageURL string `json:"imageUrl"`
	Quantity int    `json:"quantity"`
}

// ProductID returns the product part of the composite line id.
func (l CartLine) ProductID() string {
	return ProductIDFromLineID(l.ID)
}

// Subtotal returns quantity×price, false for quote-required lines.
func (l CartLine) Subtotal() (decimal.Decimal, bool) {
	amount, ok := l.Price.Amount()
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(decimal.NewFromInt(int64(l.Quantity))), true
}

// ProductIDFromLineID drops the variant suffix from a line id.
func ProductIDFromLineID(id string) string {
	head, _, _ := strings.Cut(id, LineIDSeparator)
	return head
}

// LineID builds the composite id for a product variant.
func LineID(productID, variant string) string {
	if variant == "" {
		variant = "base"
	}
	return productID + LineIDSeparator + variant
}
