package domain

type Product struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       Price            `json:"price"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	CategoryID  string           `json:"categoryId,omitempty"`
	Active      bool             `json:"active"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

type ProductVariant struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Price *Price `json:"price,omitempty"`
}

// LineFor builds a cart line for the given variant key. A variant price, when
// present, overrides the product price.
func (p Product) LineFor(variant string) CartLine {
	line := CartLine{
		ID:       LineID(p.ID, variant),
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	}
	for _, v := range p.Variants {
		if v.Key != variant {
			continue
		}
		if v.Name != "" {
			line.Name = p.Name + " - " + v.Name
		}
		if v.Price != nil {
			line.Price = *v.Price
		}
	}
	return line
}
