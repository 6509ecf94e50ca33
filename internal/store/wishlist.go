package store

import (
	"context"

	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/repository/slot"
)

// Wishlist is a set of saved products, unique by id.
type Wishlist struct {
	*Persisted[domain.Product]
}

// NewWishlist opens the wishlist slot of userID; an empty userID opens the guest wishlist.
func NewWishlist(repo slot.Repository, userID string, logger zerolog.Logger) *Wishlist {
	return &Wishlist{Persisted: newPersisted[domain.Product](repo, SlotKey(KindWishlist, userID), logger)}
}

func (w *Wishlist) Add(ctx context.Context, product domain.Product) error {
	return w.Mutate(ctx, func(items []domain.Product) ([]domain.Product, error) {
		for _, it := range items {
			if it.ID == product.ID {
				return items, nil
			}
		}
		return append(items, product), nil
	})
}

func (w *Wishlist) Remove(ctx context.Context, productID int) error {
	return w.Mutate(ctx, func(items []domain.Product) ([]domain.Product, error) {
		out := items[:0]
		for _, it := range items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// Contains reports whether productID is saved. An unloaded wishlist contains nothing.
func (w *Wishlist) Contains(productID int) bool {
	items, _ := w.Snapshot().Items()
	for _, it := range items {
		if it.ID == productID {
			return true
		}
	}
	return false
}

func (w *Wishlist) Clear(ctx context.Context) error {
	return w.Mutate(ctx, func([]domain.Product) ([]domain.Product, error) {
		return []domain.Product{}, nil
	})
}
