package pagination

import "errors"

var (
	// ErrInvalidLimit is returned when limit is not positive.
	ErrInvalidLimit = errors.New("pagination: limit must be positive")
	// ErrInvalidPage is returned when page is below 1.
	ErrInvalidPage = errors.New("pagination: page must be at least 1")
)

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasMore       bool `json:"hasMore"`
	Limit         int  `json:"limit"`
}

// Page is one slice of a larger list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// Paginate returns the 1-based page of items. A page past the end yields an
// empty, non-nil slice with HasMore false.
func Paginate[T any](items []T, page, limit int) (Page[T], error) {
	if limit <= 0 {
		return Page[T]{}, ErrInvalidLimit
	}
	if page < 1 {
		return Page[T]{}, ErrInvalidPage
	}

	total := len(items)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	// Compare page numbers before multiplying so huge pages cannot overflow.
	out := []T{}
	if page <= pages {
		start := (page - 1) * limit
		end := start + limit
		if end > total {
			end = total
		}
		out = make([]T, end-start)
		copy(out, items[start:end])
	}

	return Page[T]{
		Items: out,
		Pagination: Meta{
			CurrentPage:   page,
			TotalPages:    pages,
			TotalProducts: total,
			HasMore:       page < pages,
			Limit:         limit,
		},
	}, nil
}

// WithFetched recomputes HasMore for a list that has accumulated fetched
// items across several pages.
func WithFetched(meta Meta, fetched int) Meta {
	meta.HasMore = fetched < meta.TotalProducts
	return meta
}
