package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/domain"
)

func TestNormalizePriceInvariant(t *testing.T) {
	for id := 1; id <= 60; id++ {
		p := Normalize(RawProduct{ID: id, Title: "x", Price: 99.99, Category: "electronics"})
		assert.LessOrEqual(t, p.Price, p.OriginalPrice)
		assert.GreaterOrEqual(t, p.Discount, 10)
		assert.LessOrEqual(t, p.Discount, 40)
		approx := math.Round((p.OriginalPrice - p.Price) / p.OriginalPrice * 100)
		assert.InDelta(t, float64(p.Discount), approx, 1)
		assert.NotEmpty(t, p.Colors)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := RawProduct{ID: 7, Title: "Ring", Price: 10, Category: "jewelery", Rating: &RawRating{Rate: 4.5, Count: 3}}
	assert.Equal(t, Normalize(raw), Normalize(raw))
}

func TestNormalizeFallbacks(t *testing.T) {
	p := Normalize(RawProduct{ID: 3, Title: "Cable", Price: 5, Category: "toys"})
	assert.Equal(t, fallbackImage, p.Image)
	assert.Equal(t, "Generic", p.Brand)
	assert.Equal(t, []string{}, p.Sizes)
	assert.Zero(t, p.Rating)
	assert.Equal(t, 3*37%200, p.ReviewCount)
}

func TestSizesFor(t *testing.T) {
	assert.Equal(t, []string{"XS", "S", "M", "L", "XL", "XXL"}, SizesFor("women's clothing"))
	assert.Equal(t, []string{domain.OneSize}, SizesFor("jewelery"))
}

func TestTitleCaseAndSlugify(t *testing.T) {
	assert.Equal(t, "Men's Clothing", TitleCase("men's clothing"))
	assert.Equal(t, "women's-clothing", Slugify("Women's  Clothing"))
}

func TestSorted(t *testing.T) {
	in := []domain.Product{
		{ID: 1, Title: "beta", Price: 5, Discount: 10},
		{ID: 2, Title: "Alpha", Price: 9, Discount: 30},
		{ID: 3, Title: "gamma", Price: 1, Discount: 20},
	}
	ids := func(ps []domain.Product) []int {
		out := make([]int, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}
	assert.Equal(t, []int{2, 1, 3}, ids(Sorted(in, SortTitleAsc)))
	assert.Equal(t, []int{3, 1, 2}, ids(Sorted(in, SortPriceAsc)))
	assert.Equal(t, []int{2, 1, 3}, ids(Sorted(in, SortPriceDesc)))
	assert.Equal(t, []int{2, 3, 1}, ids(Sorted(in, SortDiscount)))
	assert.Equal(t, []int{1, 2, 3}, ids(Sorted(in, SortRelevance)))
	assert.Equal(t, []int{1, 2, 3}, ids(in))
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPriceDesc, ParseSortKey("Price: High to Low"))
	assert.Equal(t, SortRelevance, ParseSortKey("Newest"))
}
