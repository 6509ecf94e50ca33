package catalog

import (
	"math"
	"strings"

	"storefront/internal/domain"
)

const fallbackImage = "/fallback-image.png"

var (
	categoryBrands = map[string][]string{
		"men's clothing":   {"Nike", "Adidas", "Zara", "H&M", "Uniqlo"},
		"women's clothing": {"Zara", "H&M", "Forever 21", "Mango", "Vero Moda"},
		"jewelery":         {"Tanishq", "Kalyan", "Malabar Gold", "Joyalukkas"},
		"electronics":      {"Apple", "Samsung", "Sony", "Xiaomi", "OnePlus"},
	}
	palette      = []string{"Black", "White", "Blue", "Red", "Green", "Yellow", "Pink", "Purple"}
	clothingSize = []string{"XS", "S", "M", "L", "XL", "XXL"}
)

// Normalize maps an upstream record onto the canonical Product shape.
// Merchandising fields the upstream lacks are derived from the product id so
// repeated fetches agree with each other.
func Normalize(raw RawProduct) domain.Product {
	discount := 10 + (raw.ID*7)%31
	original := raw.Price
	price := round2(original - original*float64(discount)/100)

	image := strings.TrimSpace(raw.Image)
	if image == "" {
		image = fallbackImage
	}

	var rating float64
	reviews := (raw.ID * 37) % 200
	if raw.Rating != nil {
		rating = raw.Rating.Rate
		if raw.Rating.Count > 0 {
			reviews = raw.Rating.Count
		}
	}

	return domain.Product{
		ID:            raw.ID,
		Title:         raw.Title,
		Description:   raw.Description,
		Price:         price,
		OriginalPrice: original,
		Discount:      discount,
		Image:         image,
		Category:      raw.Category,
		Rating:        rating,
		ReviewCount:   reviews,
		Brand:         BrandFor(raw.Category, raw.ID),
		IsNew:         raw.ID%10 < 3,
		IsBestseller:  raw.ID%5 == 0,
		Colors:        colorsFor(raw.ID),
		Sizes:         SizesFor(raw.Category),
		InStock:       raw.ID%10 != 9,
	}
}

// NormalizeAll maps every record in order.
func NormalizeAll(raw []RawProduct) []domain.Product {
	out := make([]domain.Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r))
	}
	return out
}

// BrandFor picks a brand for a product from its category.
func BrandFor(category string, id int) string {
	brands, ok := categoryBrands[strings.ToLower(category)]
	if !ok {
		return "Generic"
	}
	if id < 0 {
		id = -id
	}
	return brands[id%len(brands)]
}

// SizesFor lists the sizes sold for a category.
func SizesFor(category string) []string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "clothing"):
		return append([]string(nil), clothingSize...)
	case c == "jewelery":
		return []string{domain.OneSize}
	default:
		return []string{}
	}
}

func colorsFor(id int) []string {
	if id < 0 {
		id = -id
	}
	n := 1 + id%3
	start := (id * 3) % len(palette)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, palette[(start+i)%len(palette)])
	}
	return out
}

// NormalizeCategories builds categories from upstream names.
func NormalizeCategories(names []string) []domain.Category {
	out := make([]domain.Category, 0, len(names))
	for i, name := range names {
		out = append(out, domain.Category{
			ID:   i + 1,
			Name: TitleCase(name),
			Slug: Slugify(name),
		})
	}
	return out
}

// TitleCase upper-cases the first letter of every space separated word.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Slugify lower-cases s and joins whitespace runs with "-".
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
