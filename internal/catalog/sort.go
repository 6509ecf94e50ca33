package catalog

import (
	"sort"
	"strings"

	"storefront/internal/domain"
)

// SortKey selects the order of a product listing.
type SortKey string

const (
	SortRelevance SortKey = ""
	SortTitleAsc  SortKey = "A-Z"
	SortPriceAsc  SortKey = "Price: Low to High"
	SortPriceDesc SortKey = "Price: High to Low"
	SortDiscount  SortKey = "Better Discount"
)

// ParseSortKey maps user input onto a known key; unknown values keep catalog order.
func ParseSortKey(v string) SortKey {
	switch k := SortKey(strings.TrimSpace(v)); k {
	case SortTitleAsc, SortPriceAsc, SortPriceDesc, SortDiscount:
		return k
	default:
		return SortRelevance
	}
}

// Sorted returns a sorted copy of products.
func Sorted(products []domain.Product, key SortKey) []domain.Product {
	out := append([]domain.Product(nil), products...)
	var less func(a, b domain.Product) bool
	switch key {
	case SortTitleAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortPriceAsc:
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.Price > b.Price }
	case SortDiscount:
		less = func(a, b domain.Product) bool { return a.Discount > b.Discount }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
