package domain

const (
	MinLineQuantity = 1
	MaxLineQuantity = 5
)

// CartLineItem is a product in a specific variant with a quantity.
type CartLineItem struct {
	Product
	SelectedColor string `json:"selectedColor"`
	SelectedSize  string `json:"selectedSize"`
	Quantity      int    `json:"quantity"`
}

// LineKey identifies a cart line by product and selected variant.
type LineKey struct {
	ProductID int    `json:"id"`
	Color     string `json:"selectedColor"`
	Size      string `json:"selectedSize"`
}

// Key returns the composite identity of the line.
func (l CartLineItem) Key() LineKey {
	return LineKey{ProductID: l.ID, Color: l.SelectedColor, Size: l.SelectedSize}
}

// ClampQuantity maps a requested quantity into the allowed range; zero means one.
func ClampQuantity(qty int) int {
	if qty < MinLineQuantity {
		return MinLineQuantity
	}
	if qty > MaxLineQuantity {
		return MaxLineQuantity
	}
	return qty
}
