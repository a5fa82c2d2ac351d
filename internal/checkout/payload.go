package checkout

import (
	"storefront/internal/domain"
)

// BuildOrder turns a validated form and the cart lines into the order
// request. Quote-required lines are sent without a unit price.
func BuildOrder(form ContactForm, lines []domain.CartLine) domain.OrderRequest {
	form = form.Normalize()

	var phone *string
	if form.Phone != "" {
		p := form.Phone
		phone = &p
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := domain.OrderItem{
			ProductID: line.ProductID(),
			Quantity:  line.Quantity,
		}
		if !line.Price.IsQuote() {
			price := line.Price
			item.UnitPrice = &price
		}
		items = append(items, item)
	}

	return domain.OrderRequest{
		Customer: domain.OrderCustomer{
			Name:           form.Name,
			Email:          form.Email,
			Phone:          phone,
			MarketingOptIn: form.MarketingOptIn,
		},
		Address: nil,
		Items:   items,
		Note:    form.Note,
	}
}
