package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/search"
)

type api struct {
	catalog     catalogService
	suggestions suggester
	sessions    *SessionManager
	logger      zerolog.Logger
}

func (a *api) fail(c *gin.Context, err error) {
	writeError(c, a.logger, err)
}

func (a *api) listProducts(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := a.catalog.AllProducts(c.Request.Context(), params)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) getProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		a.fail(c, domain.ErrNotFound)
		return
	}
	product, err := a.catalog.Product(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *api) listCategories(c *gin.Context) {
	categories, err := a.catalog.Categories(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (a *api) listCategoryProducts(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := a.catalog.ProductsByCategory(c.Request.Context(), c.Param("slug"), params)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) searchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		a.fail(c, domain.NewValidationError("q", "Please enter a search term"))
		return
	}
	params, err := listParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := a.catalog.Search(c.Request.Context(), q, params)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) suggest(c *gin.Context) {
	suggestions, err := a.suggestions.Suggestions(c.Request.Context(), c.Query("q"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (a *api) trending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trending": search.Trending()})
}

func listParams(c *gin.Context) (catalog.ListParams, error) {
	page, err := intQuery(c, "page", catalog.DefaultPage)
	if err != nil {
		return catalog.ListParams{}, err
	}
	limit, err := intQuery(c, "limit", catalog.DefaultLimit)
	if err != nil {
		return catalog.ListParams{}, err
	}
	return catalog.ListParams{Page: page, Limit: limit, Sort: catalog.ParseSortKey(c.Query("sort"))}, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be a number")
	}
	return n, nil
}
