package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"storefront/internal/repository/slot"
)

// Snapshot is a read of a persisted store. A snapshot taken before the store
// was loaded from storage carries no items.
type Snapshot[T any] struct {
	items  []T
	loaded bool
}

// Items returns the stored items, or false while the store has not been
// loaded yet. Callers must not render store-dependent output in that case.
func (s Snapshot[T]) Items() ([]T, bool) {
	if !s.loaded {
		return nil, false
	}
	return s.items, true
}

// Loaded reports whether the snapshot was taken after hydration.
func (s Snapshot[T]) Loaded() bool {
	return s.loaded
}

type state[T any] struct {
	Items []T `json:"items"`
}

// Persisted is a list of T bound to one durable slot. Mutations are pure
// transitions from the old list to the new one, applied under a lock and
// written back to the slot.
type Persisted[T any] struct {
	mu     sync.Mutex
	key    string
	repo   slot.Repository
	logger zerolog.Logger
	items  []T
	loaded bool
}

func newPersisted[T any](repo slot.Repository, key string, logger zerolog.Logger) *Persisted[T] {
	return &Persisted[T]{
		key:    key,
		repo:   repo,
		logger: logger.With().Str("slot", key).Logger(),
	}
}

// Key is the durable slot name.
func (p *Persisted[T]) Key() string {
	return p.key
}

// Hydrate reads the slot once. Later calls are no-ops.
func (p *Persisted[T]) Hydrate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hydrateLocked(ctx)
}

func (p *Persisted[T]) hydrateLocked(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	var st state[T]
	found, err := slot.Read(ctx, p.repo, p.key, &st)
	if err != nil {
		if !errors.Is(err, slot.ErrCorrupt) {
			return err
		}
		// An undecodable slot starts over empty; the next write replaces it.
		p.logger.Warn().Err(err).Msg("discarding corrupt slot")
		st = state[T]{}
	}
	p.items = st.Items
	if p.items == nil {
		p.items = []T{}
	}
	p.loaded = true
	p.logger.Debug().Bool("found", found).Int("items", len(p.items)).Msg("hydrated")
	return nil
}

// Snapshot returns a copy of the current items.
func (p *Persisted[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return Snapshot[T]{}
	}
	return Snapshot[T]{items: append([]T{}, p.items...), loaded: true}
}

// Mutate applies fn to the current items and persists the result. A store
// that has not been hydrated is hydrated first. When fn returns an error the
// state is left unchanged.
func (p *Persisted[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.hydrateLocked(ctx); err != nil {
		return err
	}
	next, err := fn(append([]T{}, p.items...))
	if err != nil {
		return err
	}
	if next == nil {
		next = []T{}
	}
	if err := slot.Write(ctx, p.repo, p.key, state[T]{Items: next}); err != nil {
		return err
	}
	p.items = next
	return nil
}
