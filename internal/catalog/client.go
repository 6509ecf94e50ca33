package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

// RawRating is the upstream rating object.
type RawRating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// RawProduct is a product record as served by the remote catalog.
type RawProduct struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Image       string     `json:"image"`
	Rating      *RawRating `json:"rating"`
}

// Client talks to the remote product catalog. Identical concurrent reads
// share one upstream request; nothing is cached between calls.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	group   singleflight.Group
}

// NewClient builds a Client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Products fetches the full catalog.
func (c *Client) Products(ctx context.Context) ([]RawProduct, error) {
	var out []RawProduct
	if err := c.getShared(ctx, "list products", "/products", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errUnexpectedFormat("list products")
	}
	return out, nil
}

// ProductsInCategory fetches every product of the named upstream category.
func (c *Client) ProductsInCategory(ctx context.Context, category string) ([]RawProduct, error) {
	var out []RawProduct
	path := "/products/category/" + url.PathEscape(category)
	if err := c.getShared(ctx, "list category", path, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errUnexpectedFormat("list category")
	}
	return out, nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int) (*RawProduct, error) {
	var out *RawProduct
	if err := c.getShared(ctx, "get product", "/products/"+strconv.Itoa(id), &out); err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if out == nil || out.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// Categories fetches the upstream category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getShared(ctx, "list categories", "/products/categories", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errUnexpectedFormat("list categories")
	}
	return out, nil
}

// getShared decodes the body of GET path into dst, leaving dst untouched for
// an empty body. The raw body is shared between concurrent callers so each
// decodes into its own value. The shared request runs detached from any one
// caller, bounded by the client timeout; a caller whose ctx ends stops
// waiting without failing the others.
func (c *Client) getShared(ctx context.Context, op, path string, dst any) error {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (any, error) {
		return c.get(detached, op, path)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return &domain.GatewayError{Op: op, Timeout: isTimeout(ctx.Err()), Err: ctx.Err()}
	}
	if res.Err != nil {
		return res.Err
	}
	body := bytes.TrimSpace(res.Val.([]byte))
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &domain.GatewayError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &domain.GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("catalog request failed")
		return nil, &domain.GatewayError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("catalog request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.GatewayError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.GatewayError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	return body, nil
}

func errUnexpectedFormat(op string) error {
	return &domain.GatewayError{Op: op, Err: errors.New("unexpected product data format")}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
