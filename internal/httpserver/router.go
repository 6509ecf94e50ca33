package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront/internal/catalog"
	"storefront/internal/domain"
)

type catalogService interface {
	AllProducts(ctx context.Context, params catalog.ListParams) (catalog.ProductPage, error)
	ProductsByCategory(ctx context.Context, category string, params catalog.ListParams) (catalog.ProductPage, error)
	Product(ctx context.Context, id int) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, query string, params catalog.ListParams) (catalog.ProductPage, error)
}

type suggester interface {
	Suggestions(ctx context.Context, query string) ([]domain.Suggestion, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Catalog     catalogService
	Suggestions suggester
	Sessions    *SessionManager
	// Ready reports storage health for /readyz; nil means always ready.
	Ready          func(ctx context.Context) error
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Suggestions == nil || deps.Sessions == nil {
		return nil, errors.New("httpserver: catalog, suggestions and sessions are required")
	}
	corsCfg := corsConfig(deps.AllowedOrigins)
	if err := corsCfg.Validate(); err != nil {
		return nil, err
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	a := &api{catalog: deps.Catalog, suggestions: deps.Suggestions, sessions: deps.Sessions, logger: logger}

	router.GET("/products", a.listProducts)
	router.GET("/products/:id", a.getProduct)
	router.GET("/categories", a.listCategories)
	router.GET("/categories/:slug/products", a.listCategoryProducts)
	router.GET("/search", a.searchProducts)
	router.GET("/search/suggestions", a.suggest)
	router.GET("/search/trending", a.trending)

	router.POST("/sessions", a.openSession)
	sess := router.Group("/sessions/:sessionId", sessionMiddleware(deps.Sessions))
	{
		sess.DELETE("", a.closeSession)

		sess.GET("/auth", a.authView)
		sess.POST("/auth/otp", a.sendOTP)
		sess.POST("/auth/otp/verify", a.verifyOTP)
		sess.POST("/auth/otp/resend", a.resendOTP)
		sess.POST("/auth/otp/reset", a.resetOTP)
		sess.POST("/auth/profile", a.completeProfile)
		sess.POST("/auth/logout", a.logout)

		sess.GET("/cart", a.getCart)
		sess.POST("/cart/items", a.addCartItem)
		sess.PATCH("/cart/items", a.updateCartItem)
		sess.DELETE("/cart/items", a.removeCartItem)
		sess.DELETE("/cart/products/:id", a.removeCartProduct)
		sess.DELETE("/cart", a.clearCart)

		sess.GET("/wishlist", a.getWishlist)
		sess.POST("/wishlist/items", a.addWishlistItem)
		sess.DELETE("/wishlist/items/:id", a.removeWishlistItem)
		sess.DELETE("/wishlist", a.clearWishlist)

		sess.GET("/searches/recent", a.recentSearches)
		sess.POST("/searches/recent", a.addRecentSearch)
		sess.DELETE("/searches/recent", a.clearRecentSearches)

		sess.GET("/list", a.listView)
		sess.PUT("/list", a.configureList)
		sess.POST("/list/more", a.loadMore)
		sess.POST("/list/reload", a.reloadList)
		sess.POST("/list/scroll", a.reportScroll)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": errorBody{Code: "not_found", Message: "Not found"}})
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
