// Package search builds type-ahead suggestions over a catalog snapshot and
// keeps the user's recent search terms.
package search

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"storefront/internal/catalog"
	"storefront/internal/domain"
)

const (
	// SnapshotSize is how many products one suggestion lookup scans.
	SnapshotSize   = 100
	MaxSuggestions = 10
)

type productLister interface {
	AllProducts(ctx context.Context, params catalog.ListParams) (catalog.ProductPage, error)
}

type Engine struct {
	products productLister
}

func NewEngine(products productLister) *Engine {
	return &Engine{products: products}
}

// Suggestions matches query at a word boundary against product titles,
// categories and brands. Titles come first, then distinct categories, then
// distinct brands.
func (e *Engine) Suggestions(ctx context.Context, query string) ([]domain.Suggestion, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Suggestion{}, nil
	}

	page, err := e.products.AllProducts(ctx, catalog.ListParams{Page: 1, Limit: SnapshotSize})
	if err != nil {
		return nil, err
	}

	var titles, categories, brands []domain.Suggestion
	seenCategory := make(map[string]struct{})
	seenBrand := make(map[string]struct{})
	for _, p := range page.Products {
		if matchesWordStart(p.Title, q) {
			titles = append(titles, domain.Suggestion{Label: p.Title, Type: domain.SuggestionProduct})
		}
		if matchesWordStart(p.Category, q) {
			key := strings.ToLower(p.Category)
			if _, dup := seenCategory[key]; !dup {
				seenCategory[key] = struct{}{}
				categories = append(categories, domain.Suggestion{
					Label: catalog.TitleCase(p.Category),
					Type:  domain.SuggestionCategory,
					Slug:  catalog.Slugify(p.Category),
				})
			}
		}
		if matchesWordStart(p.Brand, q) {
			key := strings.ToLower(p.Brand)
			if _, dup := seenBrand[key]; !dup {
				seenBrand[key] = struct{}{}
				brands = append(brands, domain.Suggestion{Label: p.Brand, Type: domain.SuggestionBrand})
			}
		}
	}

	out := make([]domain.Suggestion, 0, MaxSuggestions)
	for _, group := range [][]domain.Suggestion{titles, categories, brands} {
		for _, s := range group {
			if len(out) == MaxSuggestions {
				return out, nil
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// matchesWordStart reports whether lowered query occurs in text at the
// start of the string or right after whitespace.
func matchesWordStart(text, query string) bool {
	lower := strings.ToLower(text)
	for offset := 0; offset <= len(lower); {
		i := strings.Index(lower[offset:], query)
		if i < 0 {
			return false
		}
		at := offset + i
		if at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(lower[:at])
		if unicode.IsSpace(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(lower[at:])
		offset = at + size
	}
	return false
}
