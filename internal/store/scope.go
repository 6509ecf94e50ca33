package store

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"storefront/internal/repository/slot"
)

// Kind names a family of identity scoped stores.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// GuestNamespace is used before a user is known.
const GuestNamespace = "guest"

// SlotKey is the durable slot of kind for userID; an empty userID maps to the
// guest namespace.
func SlotKey(kind Kind, userID string) string {
	ns := namespace(userID)
	if kind == KindWishlist {
		return "wishlist__" + ns
	}
	return string(kind) + "_" + ns
}

func namespace(userID string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	return GuestNamespace
}

// Provider hands out the cart and wishlist bound to the current identity.
// It holds exactly one instance of each per namespace; binding a different
// identity swaps in fresh instances and drops the old ones.
type Provider struct {
	mu        sync.Mutex
	repo      slot.Repository
	logger    zerolog.Logger
	namespace string
	cart      *Cart
	wishlist  *Wishlist
}

func NewProvider(repo slot.Repository, logger zerolog.Logger) *Provider {
	return &Provider{repo: repo, logger: logger}
}

// Bind scopes the stores to userID and hydrates them.
func (p *Provider) Bind(ctx context.Context, userID string) error {
	cart, wishlist := p.bind(userID)
	if err := cart.Hydrate(ctx); err != nil {
		return err
	}
	return wishlist.Hydrate(ctx)
}

func (p *Provider) bind(userID string) (*Cart, *Wishlist) {
	ns := namespace(userID)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cart != nil && p.namespace == ns {
		return p.cart, p.wishlist
	}
	p.namespace = ns
	p.cart = NewCart(p.repo, ns, p.logger)
	p.wishlist = NewWishlist(p.repo, ns, p.logger)
	p.logger.Debug().Str("namespace", ns).Msg("stores bound")
	return p.cart, p.wishlist
}

// Release clears the stores of the bound identity and rebinds to an empty
// guest namespace. Guest items left from before login are dropped too.
func (p *Provider) Release(ctx context.Context) error {
	p.mu.Lock()
	cart, wishlist := p.cart, p.wishlist
	p.mu.Unlock()

	if err := clearStores(ctx, cart, wishlist); err != nil {
		return err
	}
	guestCart, guestWishlist := p.bind("")
	return clearStores(ctx, guestCart, guestWishlist)
}

func clearStores(ctx context.Context, cart *Cart, wishlist *Wishlist) error {
	if cart != nil {
		if err := cart.Clear(ctx); err != nil {
			return err
		}
	}
	if wishlist != nil {
		if err := wishlist.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Cart returns the bound cart, creating a guest cart when nothing is bound yet.
func (p *Provider) Cart() *Cart {
	p.mu.Lock()
	bound := p.cart
	p.mu.Unlock()
	if bound != nil {
		return bound
	}
	cart, _ := p.bind("")
	return cart
}

// Wishlist returns the bound wishlist, creating a guest one when nothing is bound yet.
func (p *Provider) Wishlist() *Wishlist {
	p.mu.Lock()
	bound := p.wishlist
	p.mu.Unlock()
	if bound != nil {
		return bound
	}
	_, wishlist := p.bind("")
	return wishlist
}

// Namespace reports the bound identity namespace, or guest.
func (p *Provider) Namespace() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.namespace == "" {
		return GuestNamespace
	}
	return p.namespace
}
