package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/pagination"
)

// countingSource serves pages of a catalog of total products.
type countingSource struct {
	mu    sync.Mutex
	total int
	calls []catalog.ListParams
	err   error
}

func (s *countingSource) fetch(_ context.Context, params catalog.ListParams) (catalog.ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, params)
	if s.err != nil {
		return catalog.ProductPage{}, s.err
	}
	products := make([]domain.Product, params.Limit)
	for i := range products {
		id := (params.Page-1)*params.Limit + i + 1
		products[i] = domain.Product{ID: id, Title: fmt.Sprintf("Product %d", id)}
	}
	return catalog.ProductPage{
		Products: products,
		Pagination: pagination.Meta{
			CurrentPage:   params.Page,
			TotalProducts: s.total,
			TotalPages:    s.total / params.Limit,
			HasMore:       true,
			Limit:         params.Limit,
		},
	}, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestControllerStopsAtMaxItems(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{total: 100}
	c := NewController(Config{}, zerolog.Nop())

	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, catalog.SortRelevance))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.LoadMore(ctx))
	}

	view := c.View()
	assert.Len(t, view.Items, 20)
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, Ready, view.Phase)
	assert.False(t, view.CanLoadMore)
	assert.True(t, view.Pagination.HasMore)
	assert.Equal(t, 2, view.Pagination.CurrentPage)
	assert.Equal(t, 20, view.Items[19].ID)
}

func TestControllerTruncatesToCap(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{total: 100}
	c := NewController(Config{PageSize: 15, MaxItems: 20}, zerolog.Nop())

	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""))
	require.NoError(t, c.LoadMore(ctx))
	assert.Len(t, c.View().Items, 20)
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, 2, src.callCount())
}

func TestControllerStopsWhenExhausted(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{total: 10}
	c := NewController(Config{}, zerolog.Nop())

	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""))
	assert.False(t, c.View().Pagination.HasMore)
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, 1, src.callCount())
}

func TestControllerConfigureReloadsOnKeyOrSortChange(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{total: 100}
	c := NewController(Config{}, zerolog.Nop())

	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""))
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""))
	assert.Equal(t, 2, src.callCount(), "same key and sort is a no-op")
	assert.Len(t, c.View().Items, 20)

	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, catalog.SortPriceAsc))
	assert.Equal(t, 3, src.callCount())
	assert.Len(t, c.View().Items, 10)
	assert.Equal(t, catalog.ListParams{Page: 1, Limit: 10, Sort: catalog.SortPriceAsc}, src.calls[2])

	require.NoError(t, c.Configure(ctx, Source{Key: "category:jewelery", Fetch: src.fetch}, catalog.SortPriceAsc))
	assert.Equal(t, 4, src.callCount())
}

func TestControllerReload(t *testing.T) {
	ctx := context.Background()
	c := NewController(Config{}, zerolog.Nop())
	assert.ErrorIs(t, c.Reload(ctx), ErrNotConfigured)
	assert.Equal(t, Idle, c.View().Phase)

	src := &countingSource{total: 100}
	require.NoError(t, c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""))
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.Reload(ctx))
	assert.Len(t, c.View().Items, 10)
	assert.Equal(t, 1, c.View().Pagination.CurrentPage)
}

func TestControllerError(t *testing.T) {
	ctx := context.Background()
	boom := &domain.GatewayError{Op: "list products", Err: errors.New("boom")}
	src := &countingSource{total: 100, err: boom}
	c := NewController(Config{}, zerolog.Nop())

	err := c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, "")
	require.ErrorIs(t, err, boom)
	view := c.View()
	assert.Equal(t, Failed, view.Phase)
	assert.ErrorIs(t, view.Err, boom)
	assert.False(t, view.CanLoadMore)

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	require.NoError(t, c.Reload(ctx))
	assert.Equal(t, Ready, c.View().Phase)
	assert.NoError(t, c.View().Err)
}

func TestControllerFirstPageSupersedesInFlight(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	slow := func(fctx context.Context, params catalog.ListParams) (catalog.ProductPage, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			select {
			case <-fctx.Done():
			case <-release:
			}
			return catalog.ProductPage{Products: []domain.Product{{ID: 999}}}, nil
		}
		return catalog.ProductPage{
			Products:   []domain.Product{{ID: 1}},
			Pagination: pagination.Meta{CurrentPage: 1, TotalProducts: 1},
		}, nil
	}

	c := NewController(Config{}, zerolog.Nop())
	done := make(chan error)
	go func() {
		done <- c.Configure(ctx, Source{Key: "slow", Fetch: slow}, "")
	}()
	<-started
	assert.Equal(t, Loading, c.View().Phase)

	require.NoError(t, c.Reload(ctx))
	require.NoError(t, <-done)
	close(release)

	view := c.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].ID)
	assert.Equal(t, Ready, view.Phase)
}
