package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/repository/slot"
	"storefront/internal/store"
)

type productSource interface {
	Product(ctx context.Context, id int) (*domain.Product, error)
}

// User is the demo content of one account.
type User struct {
	UserID   string
	Cart     []int
	Wishlist []int
}

// DemoUsers match the accounts built into the mock OTP backend.
var DemoUsers = []User{
	{UserID: "1", Cart: []int{1, 3}, Wishlist: []int{5, 9}},
	{UserID: "2", Cart: []int{15}, Wishlist: []int{16, 18, 20}},
}

// Apply fills the cart and wishlist slots of the demo users in repo. Each
// product goes in its first colour and size. It is idempotent since adding an
// existing line or wishlist entry is a no-op.
func Apply(ctx context.Context, repo slot.Repository, products productSource, logger zerolog.Logger) error {
	return ApplyUsers(ctx, repo, products, DemoUsers, logger)
}

// ApplyUsers is Apply for an explicit set of accounts.
func ApplyUsers(ctx context.Context, repo slot.Repository, products productSource, users []User, logger zerolog.Logger) error {
	for _, u := range users {
		cart := store.NewCart(repo, u.UserID, logger)
		for _, id := range u.Cart {
			p, err := products.Product(ctx, id)
			if err != nil {
				return fmt.Errorf("load product %d: %w", id, err)
			}
			if err := cart.Add(ctx, *p, first(p.Colors), first(p.Sizes), 1); err != nil {
				return fmt.Errorf("seed cart of user %s: %w", u.UserID, err)
			}
		}

		wishlist := store.NewWishlist(repo, u.UserID, logger)
		for _, id := range u.Wishlist {
			p, err := products.Product(ctx, id)
			if err != nil {
				return fmt.Errorf("load product %d: %w", id, err)
			}
			if err := wishlist.Add(ctx, *p); err != nil {
				return fmt.Errorf("seed wishlist of user %s: %w", u.UserID, err)
			}
		}
		logger.Info().Str("user_id", u.UserID).Int("cart", len(u.Cart)).Int("wishlist", len(u.Wishlist)).Msg("seeded")
	}
	return nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
