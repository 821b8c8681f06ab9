package models

// ProductSize is a purchasable variant of a product (e.g. "750ml")
type ProductSize struct {
	Size    string  `json:"size"`
	Price   float64 `json:"price"`
	InStock bool    `json:"inStock"`
}

// Product represents an item available in the store catalog
type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image,omitempty"`
	Price       float64       `json:"price"`
	InStock     bool          `json:"inStock"`
	Sizes       []ProductSize `json:"sizes,omitempty"`
}

// SizePrice returns the price for the given size label, falling back to the
// base price when the product has no matching variant.
func (p *Product) SizePrice(size string) float64 {
	if size == "" {
		return p.Price
	}
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Price
		}
	}
	return p.Price
}
