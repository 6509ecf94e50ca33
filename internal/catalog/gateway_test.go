package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type stubUpstream struct {
	products     []RawProduct
	categories   []string
	err          error
	lastCategory string
	listCalls    int
}

func (s *stubUpstream) Products(context.Context) ([]RawProduct, error) {
	s.listCalls++
	return s.products, s.err
}

func (s *stubUpstream) ProductsInCategory(_ context.Context, category string) ([]RawProduct, error) {
	s.lastCategory = category
	var out []RawProduct
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, s.err
}

func (s *stubUpstream) Product(_ context.Context, id int) (*RawProduct, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubUpstream) Categories(context.Context) ([]string, error) {
	return s.categories, s.err
}

func sampleUpstream() *stubUpstream {
	return &stubUpstream{
		products: []RawProduct{
			{ID: 1, Title: "Fjallraven Backpack", Price: 109.95, Category: "men's clothing"},
			{ID: 2, Title: "Slim Fit T-Shirt", Price: 22.3, Category: "men's clothing"},
			{ID: 3, Title: "Gold Bracelet", Price: 695, Category: "jewelery"},
			{ID: 4, Title: "SSD 1TB", Price: 109, Category: "electronics"},
			{ID: 5, Title: "Rain Jacket", Price: 39.99, Category: "women's clothing"},
		},
		categories: []string{"electronics", "jewelery", "men's clothing", "women's clothing"},
	}
}

func TestGatewayAllProductsPaginates(t *testing.T) {
	g := NewGateway(sampleUpstream())
	got, err := g.AllProducts(context.Background(), ListParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got.Products, 2)
	assert.Equal(t, 3, got.Products[0].ID)
	assert.Equal(t, 5, got.Pagination.TotalProducts)
	assert.Equal(t, 3, got.Pagination.TotalPages)
	assert.True(t, got.Pagination.HasMore)
}

func TestGatewayDefaultsAndSort(t *testing.T) {
	g := NewGateway(sampleUpstream())
	got, err := g.AllProducts(context.Background(), ListParams{Sort: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Pagination.Limit)
	for i := 1; i < len(got.Products); i++ {
		assert.LessOrEqual(t, got.Products[i-1].Price, got.Products[i].Price)
	}
}

func TestGatewayInvalidLimit(t *testing.T) {
	g := NewGateway(sampleUpstream())
	_, err := g.AllProducts(context.Background(), ListParams{Page: 1, Limit: -1})
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestGatewayProductsByCategoryAcceptsSlug(t *testing.T) {
	up := sampleUpstream()
	g := NewGateway(up)
	got, err := g.ProductsByCategory(context.Background(), "men's-clothing", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "men's clothing", up.lastCategory)
	assert.Len(t, got.Products, 2)
}

func TestGatewaySearchMatchesTitleCategoryOrBrand(t *testing.T) {
	g := NewGateway(sampleUpstream())

	got, err := g.Search(context.Background(), "  SHIRT ", ListParams{})
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, 2, got.Products[0].ID)

	got, err = g.Search(context.Background(), "clothing", ListParams{})
	require.NoError(t, err)
	ids := make([]int, 0, len(got.Products))
	for _, p := range got.Products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 2, 5}, ids)

	brand := BrandFor("electronics", 4)
	got, err = g.Search(context.Background(), brand, ListParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Products)
}

func TestGatewayProduct(t *testing.T) {
	g := NewGateway(sampleUpstream())
	p, err := g.Product(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Gold Bracelet", p.Title)
	assert.Equal(t, []string{domain.OneSize}, p.Sizes)

	_, err = g.Product(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGatewayCategories(t *testing.T) {
	g := NewGateway(sampleUpstream())
	got, err := g.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, domain.Category{ID: 3, Name: "Men's Clothing", Slug: "men's-clothing"}, got[2])
}

func TestGatewayPropagatesUpstreamError(t *testing.T) {
	up := sampleUpstream()
	up.err = &domain.GatewayError{Op: "list products", Timeout: true}
	g := NewGateway(up)
	_, err := g.AllProducts(context.Background(), ListParams{})
	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.True(t, gwErr.IsTimeout())
}
