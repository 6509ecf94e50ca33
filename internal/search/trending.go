package search

var trending = []string{
	"Men Shirts",
	"Women Dresses",
	"Sneakers",
	"Watches",
	"Sunglasses",
	"Jeans",
	"T-Shirts",
	"Bags",
}

// Trending returns the featured search terms.
func Trending() []string {
	return append([]string(nil), trending...)
}
