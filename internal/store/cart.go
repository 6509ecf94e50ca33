package store

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/repository/slot"
)

// Cart holds line items for one identity. Lines are unique by
// (product id, colour, size) and every mutation addresses that full key.
type Cart struct {
	*Persisted[domain.CartLineItem]
}

// NewCart opens the cart slot of userID; an empty userID opens the guest cart.
func NewCart(repo slot.Repository, userID string, logger zerolog.Logger) *Cart {
	return &Cart{Persisted: newPersisted[domain.CartLineItem](repo, SlotKey(KindCart, userID), logger)}
}

// Totals summarises the cart for badges and order summaries.
type Totals struct {
	Lines    int     `json:"lines"`
	Units    int     `json:"units"`
	Subtotal float64 `json:"subtotal"`
}

// Add appends product in the given variant. Adding a variant that is already
// in the cart leaves the existing line untouched.
func (c *Cart) Add(ctx context.Context, product domain.Product, color, size string, qty int) error {
	line := domain.CartLineItem{
		Product:       product,
		SelectedColor: color,
		SelectedSize:  size,
		Quantity:      domain.ClampQuantity(qty),
	}
	return c.Mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		if indexOf(items, line.Key()) >= 0 {
			return items, nil
		}
		return append(items, line), nil
	})
}

// Remove drops the line with key. Removing an absent line is a no-op.
func (c *Cart) Remove(ctx context.Context, key domain.LineKey) error {
	return c.Mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.Key() != key {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// RemoveProduct drops every variant line of a product.
func (c *Cart) RemoveProduct(ctx context.Context, productID int) error {
	return c.Mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// UpdateQuantity sets the quantity of the line with key, clamped to 1..5.
func (c *Cart) UpdateQuantity(ctx context.Context, key domain.LineKey, qty int) error {
	return c.update(ctx, key, func(line *domain.CartLineItem) {
		line.Quantity = domain.ClampQuantity(qty)
	})
}

// UpdateColor moves the line with key to another colour.
func (c *Cart) UpdateColor(ctx context.Context, key domain.LineKey, color string) error {
	return c.update(ctx, key, func(line *domain.CartLineItem) {
		line.SelectedColor = color
	})
}

// UpdateSize moves the line with key to another size.
func (c *Cart) UpdateSize(ctx context.Context, key domain.LineKey, size string) error {
	return c.update(ctx, key, func(line *domain.CartLineItem) {
		line.SelectedSize = size
	})
}

// LineChange lists the fields of a line to change; nil fields are kept.
type LineChange struct {
	Quantity *int
	Color    *string
	Size     *string
}

func (ch LineChange) Empty() bool {
	return ch.Quantity == nil && ch.Color == nil && ch.Size == nil
}

// UpdateLine applies every field of change to the line with key in a single
// transition. Nothing is saved when the result would collide with another line.
func (c *Cart) UpdateLine(ctx context.Context, key domain.LineKey, change LineChange) error {
	return c.update(ctx, key, func(line *domain.CartLineItem) {
		if change.Quantity != nil {
			line.Quantity = domain.ClampQuantity(*change.Quantity)
		}
		if change.Color != nil {
			line.SelectedColor = *change.Color
		}
		if change.Size != nil {
			line.SelectedSize = *change.Size
		}
	})
}

func (c *Cart) update(ctx context.Context, key domain.LineKey, change func(*domain.CartLineItem)) error {
	return c.Mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, error) {
		idx := indexOf(items, key)
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		line := items[idx]
		change(&line)
		if line.Key() != key {
			if other := indexOf(items, line.Key()); other >= 0 {
				return nil, domain.ErrLineExists
			}
		}
		items[idx] = line
		return items, nil
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.Mutate(ctx, func([]domain.CartLineItem) ([]domain.CartLineItem, error) {
		return []domain.CartLineItem{}, nil
	})
}

// Totals computes counts and the subtotal of the loaded cart.
func (c *Cart) Totals() (Totals, bool) {
	items, ok := c.Snapshot().Items()
	if !ok {
		return Totals{}, false
	}
	var t Totals
	for _, it := range items {
		t.Lines++
		t.Units += it.Quantity
		t.Subtotal += it.Price * float64(it.Quantity)
	}
	t.Subtotal = math.Round(t.Subtotal*100) / 100
	return t, true
}

func indexOf(items []domain.CartLineItem, key domain.LineKey) int {
	for i, it := range items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}
