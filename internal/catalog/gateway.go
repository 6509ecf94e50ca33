package catalog

import (
	"context"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pagination"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListParams selects one page of a listing.
type ListParams struct {
	Page  int
	Limit int
	Sort  SortKey
}

func (p ListParams) withDefaults() ListParams {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// ProductPage is one page of normalized products.
type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Pagination pagination.Meta  `json:"pagination"`
}

type upstream interface {
	Products(ctx context.Context) ([]RawProduct, error)
	ProductsInCategory(ctx context.Context, category string) ([]RawProduct, error)
	Product(ctx context.Context, id int) (*RawProduct, error)
	Categories(ctx context.Context) ([]string, error)
}

// Gateway exposes the catalog as canonical, paginated products.
type Gateway struct {
	client upstream
}

func NewGateway(client upstream) *Gateway {
	return &Gateway{client: client}
}

// AllProducts lists the whole catalog.
func (g *Gateway) AllProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	raw, err := g.client.Products(ctx)
	if err != nil {
		return ProductPage{}, err
	}
	return page(NormalizeAll(raw), params)
}

// ProductsByCategory lists one category. category may be the upstream name
// or the slug returned by Categories.
func (g *Gateway) ProductsByCategory(ctx context.Context, category string, params ListParams) (ProductPage, error) {
	name := strings.ReplaceAll(strings.TrimSpace(category), "-", " ")
	if name == "" {
		return ProductPage{}, domain.NewValidationError("category", "category required")
	}
	raw, err := g.client.ProductsInCategory(ctx, name)
	if err != nil {
		return ProductPage{}, err
	}
	return page(NormalizeAll(raw), params)
}

// Product fetches one product by id.
func (g *Gateway) Product(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	raw, err := g.client.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	p := Normalize(*raw)
	return &p, nil
}

func (g *Gateway) Categories(ctx context.Context) ([]domain.Category, error) {
	names, err := g.client.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeCategories(names), nil
}

// Search matches query as a case-insensitive substring of title, category or
// brand, keeping catalog order.
func (g *Gateway) Search(ctx context.Context, query string, params ListParams) (ProductPage, error) {
	raw, err := g.client.Products(ctx)
	if err != nil {
		return ProductPage{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]domain.Product, 0)
	for _, p := range NormalizeAll(raw) {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) {
			matched = append(matched, p)
		}
	}
	return page(matched, params)
}

func page(products []domain.Product, params ListParams) (ProductPage, error) {
	params = params.withDefaults()
	res, err := pagination.Paginate(Sorted(products, params.Sort), params.Page, params.Limit)
	if err != nil {
		return ProductPage{}, domain.NewValidationError("pagination", err.Error())
	}
	return ProductPage{Products: res.Items, Pagination: res.Pagination}, nil
}
