package domain

// Product is the canonical catalog item produced by the gateway.
type Product struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Discount      int      `json:"discount"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	Brand         string   `json:"brand"`
	IsNew         bool     `json:"isNew"`
	IsBestseller  bool     `json:"isBestseller"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
	InStock       bool     `json:"inStock"`
}

// OneSize is the sentinel size for items sold in a single size.
const OneSize = "One Size"

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SuggestionType tags a search suggestion with the field it matched.
type SuggestionType string

const (
	SuggestionProduct  SuggestionType = "Product"
	SuggestionCategory SuggestionType = "Category"
	SuggestionBrand    SuggestionType = "Brand"
)

type Suggestion struct {
	Label string         `json:"label"`
	Type  SuggestionType `json:"type"`
	Slug  string         `json:"slug,omitempty"`
}
