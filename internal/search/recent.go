package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"storefront/internal/repository/slot"
)

const (
	RecentSlotKey = "recentSearches"
	MaxRecent     = 5
)

// RecentSearches is the most-recent-first list of submitted search terms.
type RecentSearches struct {
	mu     sync.Mutex
	repo   slot.Repository
	logger zerolog.Logger
	terms  []string
	loaded bool
}

func NewRecentSearches(repo slot.Repository, logger zerolog.Logger) *RecentSearches {
	return &RecentSearches{repo: repo, logger: logger}
}

func (r *RecentSearches) List(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	return append([]string{}, r.terms...), nil
}

// Add moves term to the front, keeping at most MaxRecent entries.
func (r *RecentSearches) Add(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	if term == "" {
		return append([]string{}, r.terms...), nil
	}

	next := make([]string, 0, MaxRecent)
	next = append(next, term)
	for _, t := range r.terms {
		if t != term && len(next) < MaxRecent {
			next = append(next, t)
		}
	}
	if err := slot.Write(ctx, r.repo, RecentSlotKey, next); err != nil {
		return nil, err
	}
	r.terms = next
	return append([]string{}, next...), nil
}

func (r *RecentSearches) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.repo.Delete(ctx, RecentSlotKey); err != nil {
		return err
	}
	r.terms = nil
	r.loaded = true
	return nil
}

func (r *RecentSearches) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	var terms []string
	if _, err := slot.Read(ctx, r.repo, RecentSlotKey, &terms); err != nil {
		if !errors.Is(err, slot.ErrCorrupt) {
			return err
		}
		r.logger.Warn().Err(err).Msg("discarding recent searches")
		terms = nil
	}
	r.terms = terms
	r.loaded = true
	return nil
}
