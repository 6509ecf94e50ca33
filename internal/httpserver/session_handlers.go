package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/listing"
	"storefront/internal/service/auth"
	"storefront/internal/store"
)

type openSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type identifierRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

type otpRequest struct {
	OTP string `json:"otp" binding:"required"`
}

type challengeResponse struct {
	Challenge auth.Challenge `json:"challenge"`
	Auth      auth.View      `json:"auth"`
}

type cartItemRequest struct {
	ProductID     int    `json:"productId" binding:"required"`
	SelectedColor string `json:"selectedColor"`
	SelectedSize  string `json:"selectedSize"`
	Quantity      int    `json:"quantity"`
}

// cartUpdateRequest addresses one line by its full key and changes any of
// quantity, colour and size together.
type cartUpdateRequest struct {
	domain.LineKey
	Quantity *int    `json:"quantity"`
	Color    *string `json:"color"`
	Size     *string `json:"size"`
}

type cartResponse struct {
	Items  []domain.CartLineItem `json:"items"`
	Totals store.Totals          `json:"totals"`
	Loaded bool                  `json:"loaded"`
}

type wishlistRequest struct {
	ProductID int `json:"productId" binding:"required"`
}

type wishlistResponse struct {
	Items  []domain.Product `json:"items"`
	Loaded bool             `json:"loaded"`
}

type recentRequest struct {
	Term string `json:"term"`
}

type listRequest struct {
	Source string `json:"source" binding:"required"`
	Sort   string `json:"sort"`
}

func (a *api) openSession(c *gin.Context) {
	var req openSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			a.fail(c, domain.NewValidationError("body", "invalid request body"))
			return
		}
	}
	sess, created, err := a.sessions.Open(c.Request.Context(), strings.TrimSpace(req.SessionID))
	if err != nil {
		a.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"sessionId": sess.id, "auth": sess.auth.View()})
}

func (a *api) closeSession(c *gin.Context) {
	a.sessions.Close(sessionFrom(c).id)
	c.Status(http.StatusNoContent)
}

func (a *api) authView(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).auth.View())
}

func (a *api) sendOTP(c *gin.Context) {
	var req identifierRequest
	if !a.bind(c, &req) {
		return
	}
	sess := sessionFrom(c)
	challenge, err := sess.auth.SendOTP(c.Request.Context(), req.Identifier)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeResponse{Challenge: challenge, Auth: sess.auth.View()})
}

func (a *api) verifyOTP(c *gin.Context) {
	var req otpRequest
	if !a.bind(c, &req) {
		return
	}
	view, err := sessionFrom(c).auth.VerifyOTP(c.Request.Context(), req.OTP)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *api) resendOTP(c *gin.Context) {
	sess := sessionFrom(c)
	challenge, err := sess.auth.ResendOTP(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeResponse{Challenge: challenge, Auth: sess.auth.View()})
}

func (a *api) resetOTP(c *gin.Context) {
	sess := sessionFrom(c)
	sess.auth.Reset()
	c.JSON(http.StatusOK, sess.auth.View())
}

func (a *api) completeProfile(c *gin.Context) {
	var req auth.ProfileInput
	if !a.bind(c, &req) {
		return
	}
	sess := sessionFrom(c)
	user, err := sess.auth.CompleteProfile(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "auth": sess.auth.View()})
}

func (a *api) logout(c *gin.Context) {
	sess := sessionFrom(c)
	if err := sess.auth.Logout(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.auth.View())
}

func (a *api) getCart(c *gin.Context) {
	a.writeCart(c, http.StatusOK, sessionFrom(c).stores.Cart())
}

func (a *api) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if !a.bind(c, &req) {
		return
	}
	product, err := a.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		a.fail(c, err)
		return
	}
	color := req.SelectedColor
	if color == "" && len(product.Colors) > 0 {
		color = product.Colors[0]
	}
	size := req.SelectedSize
	if size == "" && len(product.Sizes) > 0 {
		size = product.Sizes[0]
	}

	cart := sessionFrom(c).stores.Cart()
	if err := cart.Add(c.Request.Context(), *product, color, size, req.Quantity); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusCreated, cart)
}

func (a *api) updateCartItem(c *gin.Context) {
	var req cartUpdateRequest
	if !a.bind(c, &req) {
		return
	}
	change := store.LineChange{Quantity: req.Quantity, Color: req.Color, Size: req.Size}
	if change.Empty() {
		a.fail(c, domain.NewValidationError("body", "nothing to update"))
		return
	}

	cart := sessionFrom(c).stores.Cart()
	if err := cart.UpdateLine(c.Request.Context(), req.LineKey, change); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK, cart)
}

func (a *api) removeCartItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		a.fail(c, domain.NewValidationError("id", "id must be a number"))
		return
	}
	key := domain.LineKey{ProductID: id, Color: c.Query("selectedColor"), Size: c.Query("selectedSize")}
	cart := sessionFrom(c).stores.Cart()
	if err := cart.Remove(c.Request.Context(), key); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK, cart)
}

func (a *api) removeCartProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		a.fail(c, domain.ErrNotFound)
		return
	}
	cart := sessionFrom(c).stores.Cart()
	if err := cart.RemoveProduct(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK, cart)
}

func (a *api) clearCart(c *gin.Context) {
	cart := sessionFrom(c).stores.Cart()
	if err := cart.Clear(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK, cart)
}

func (a *api) writeCart(c *gin.Context, status int, cart *store.Cart) {
	items, loaded := cart.Snapshot().Items()
	if items == nil {
		items = []domain.CartLineItem{}
	}
	totals, _ := cart.Totals()
	c.JSON(status, cartResponse{Items: items, Totals: totals, Loaded: loaded})
}

func (a *api) getWishlist(c *gin.Context) {
	a.writeWishlist(c, http.StatusOK, sessionFrom(c).stores.Wishlist())
}

func (a *api) addWishlistItem(c *gin.Context) {
	var req wishlistRequest
	if !a.bind(c, &req) {
		return
	}
	product, err := a.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		a.fail(c, err)
		return
	}
	wishlist := sessionFrom(c).stores.Wishlist()
	if err := wishlist.Add(c.Request.Context(), *product); err != nil {
		a.fail(c, err)
		return
	}
	a.writeWishlist(c, http.StatusCreated, wishlist)
}

func (a *api) removeWishlistItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		a.fail(c, domain.ErrNotFound)
		return
	}
	wishlist := sessionFrom(c).stores.Wishlist()
	if err := wishlist.Remove(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	a.writeWishlist(c, http.StatusOK, wishlist)
}

func (a *api) clearWishlist(c *gin.Context) {
	wishlist := sessionFrom(c).stores.Wishlist()
	if err := wishlist.Clear(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	a.writeWishlist(c, http.StatusOK, wishlist)
}

func (a *api) writeWishlist(c *gin.Context, status int, wishlist *store.Wishlist) {
	items, loaded := wishlist.Snapshot().Items()
	if items == nil {
		items = []domain.Product{}
	}
	c.JSON(status, wishlistResponse{Items: items, Loaded: loaded})
}

func (a *api) recentSearches(c *gin.Context) {
	terms, err := sessionFrom(c).recent.List(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent": terms})
}

func (a *api) addRecentSearch(c *gin.Context) {
	var req recentRequest
	if !a.bind(c, &req) {
		return
	}
	terms, err := sessionFrom(c).recent.Add(c.Request.Context(), req.Term)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent": terms})
}

func (a *api) clearRecentSearches(c *gin.Context) {
	if err := sessionFrom(c).recent.Clear(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent": []string{}})
}

func (a *api) listView(c *gin.Context) {
	c.JSON(http.StatusOK, listResponse(sessionFrom(c).list.View()))
}

func (a *api) configureList(c *gin.Context) {
	var req listRequest
	if !a.bind(c, &req) {
		return
	}
	src, err := a.listSource(req.Source)
	if err != nil {
		a.fail(c, err)
		return
	}
	list := sessionFrom(c).list
	if err := list.Configure(c.Request.Context(), src, catalog.ParseSortKey(req.Sort)); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list.View()))
}

func (a *api) loadMore(c *gin.Context) {
	list := sessionFrom(c).list
	if err := list.LoadMore(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list.View()))
}

func (a *api) reloadList(c *gin.Context) {
	list := sessionFrom(c).list
	if err := list.Reload(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list.View()))
}

func (a *api) reportScroll(c *gin.Context) {
	var req listing.Viewport
	if !a.bind(c, &req) {
		return
	}
	sessionFrom(c).scroll.OnScroll(req)
	c.Status(http.StatusAccepted)
}

// listSource resolves "all", "category:<slug>" or "search:<query>".
func (a *api) listSource(raw string) (listing.Source, error) {
	raw = strings.TrimSpace(raw)
	kind, arg, _ := strings.Cut(raw, ":")
	arg = strings.TrimSpace(arg)
	switch {
	case raw == "" || raw == "all":
		return listing.Source{Key: "all", Fetch: a.catalog.AllProducts}, nil
	case kind == "category" && arg != "":
		return listing.Source{Key: "category:" + arg, Fetch: func(ctx context.Context, p catalog.ListParams) (catalog.ProductPage, error) {
			return a.catalog.ProductsByCategory(ctx, arg, p)
		}}, nil
	case kind == "search" && arg != "":
		return listing.Source{Key: "search:" + strings.ToLower(arg), Fetch: func(ctx context.Context, p catalog.ListParams) (catalog.ProductPage, error) {
			return a.catalog.Search(ctx, arg, p)
		}}, nil
	default:
		return listing.Source{}, domain.NewValidationError("source", "unknown list source")
	}
}

type listBody struct {
	listing.View
	Error *errorBody `json:"error,omitempty"`
}

func listResponse(v listing.View) listBody {
	body := listBody{View: v}
	if v.Err != nil {
		_, eb := classify(v.Err)
		body.Error = &eb
	}
	return body
}

func (a *api) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			a.fail(c, domain.NewValidationError(fe.Field(), fe.Field()+" is "+fe.Tag()))
			return false
		}
		a.fail(c, domain.NewValidationError("body", "invalid request body"))
		return false
	}
	return true
}
