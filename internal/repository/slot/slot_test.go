package slot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type sample struct {
	Items []string `json:"items"`
}

func TestMemoryRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	_, err := repo.Load(ctx, "cart_guest")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "cart_guest", []byte(`{"a":1}`)))
	got, err := repo.Load(ctx, "cart_guest")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	require.NoError(t, repo.Delete(ctx, "cart_guest"))
	require.NoError(t, repo.Delete(ctx, "cart_guest"))
	_, err = repo.Load(ctx, "cart_guest")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnvelopeShape(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	require.NoError(t, Write(ctx, repo, "wishlist__7", sample{Items: []string{"x"}}))

	raw, err := repo.Load(ctx, "wishlist__7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":["x"]},"version":0}`, string(raw))

	var got sample
	ok, err := Read(ctx, repo, "wishlist__7", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, got.Items)
}

func TestReadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	var got sample
	ok, err := Read(ctx, repo, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, "bad", []byte(`not json`)))
	_, err = Read(ctx, repo, "bad", &got)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, repo.Save(ctx, "empty", []byte(`{"version":0}`)))
	ok, err = Read(ctx, repo, "empty", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithPrefixIsolatesClients(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory()
	a := WithPrefix(shared, "a")
	b := WithPrefix(shared, "b")

	require.NoError(t, a.Save(ctx, "recentSearches", []byte(`[]`)))
	_, err := b.Load(ctx, "recentSearches")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	raw, err := shared.Load(ctx, "a:recentSearches")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}
