package search

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/repository/slot"
)

func TestRecentSearchesMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	recent := NewRecentSearches(slot.NewMemory(), zerolog.Nop())

	for _, term := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := recent.Add(ctx, term)
		require.NoError(t, err)
	}
	got, err := recent.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "e", "d", "c", "b"}, got)

	got, err = recent.Add(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "f", "e", "c", "b"}, got)

	got, err = recent.Add(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, MaxRecent)
}

func TestRecentSearchesPersistAndClear(t *testing.T) {
	ctx := context.Background()
	repo := slot.NewMemory()
	_, err := NewRecentSearches(repo, zerolog.Nop()).Add(ctx, "jeans")
	require.NoError(t, err)

	reopened := NewRecentSearches(repo, zerolog.Nop())
	got, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jeans"}, got)

	require.NoError(t, reopened.Clear(ctx))
	got, err = NewRecentSearches(repo, zerolog.Nop()).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentSearchesCorruptSlotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := slot.NewMemory()
	require.NoError(t, repo.Save(ctx, RecentSlotKey, []byte(`{"state":"nope","version":0}`)))

	got, err := NewRecentSearches(repo, zerolog.Nop()).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrendingIsACopy(t *testing.T) {
	got := Trending()
	require.NotEmpty(t, got)
	got[0] = "changed"
	assert.Equal(t, "Men Shirts", Trending()[0])
}
