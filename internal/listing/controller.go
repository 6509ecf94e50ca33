// Package listing drives incrementally loaded product lists.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/pagination"
)

const (
	DefaultPageSize = 10
	DefaultMaxItems = 20
)

// ErrNotConfigured is returned by Reload before any source was configured.
var ErrNotConfigured = errors.New("list source not configured")

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	LoadingMore
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadingMore:
		return "loading_more"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Idle, Loading, Ready, LoadingMore, Failed} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown list phase %q", text)
}

// FetchFunc loads one page of products.
type FetchFunc func(ctx context.Context, params catalog.ListParams) (catalog.ProductPage, error)

// Source is a keyed product listing. Two sources with the same Key are
// treated as the same list.
type Source struct {
	Key   string
	Fetch FetchFunc
}

type Config struct {
	PageSize int
	MaxItems int
}

type View struct {
	Phase       Phase            `json:"phase"`
	Items       []domain.Product `json:"products"`
	Pagination  pagination.Meta  `json:"pagination"`
	CanLoadMore bool             `json:"canLoadMore"`
	Err         error            `json:"-"`
}

// Controller holds the products accumulated for one list view. Only one
// fetch runs at a time; a first page load supersedes whatever is in flight.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	logger zerolog.Logger

	source     Source
	sort       catalog.SortKey
	configured bool

	phase      Phase
	items      []domain.Product
	meta       pagination.Meta
	err        error
	inFlight   bool
	generation uint64
	cancel     context.CancelFunc
}

func NewController(cfg Config, logger zerolog.Logger) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	return &Controller{cfg: cfg, logger: logger, items: []domain.Product{}}
}

// Configure points the controller at src sorted by sort. The first page is
// loaded when either differs from the current configuration.
func (c *Controller) Configure(ctx context.Context, src Source, sort catalog.SortKey) error {
	c.mu.Lock()
	if c.configured && c.source.Key == src.Key && c.sort == sort {
		c.mu.Unlock()
		return nil
	}
	c.source = src
	c.sort = sort
	c.configured = true
	c.mu.Unlock()
	return c.load(ctx, 1)
}

// Reload fetches the first page again, discarding accumulated items.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	configured := c.configured
	c.mu.Unlock()
	if !configured {
		return ErrNotConfigured
	}
	return c.load(ctx, 1)
}

// LoadMore appends the next page. It returns without fetching while a fetch
// is in flight, when the list is exhausted or when MaxItems is reached.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.canLoadMoreLocked() {
		c.mu.Unlock()
		return nil
	}
	next := c.meta.CurrentPage + 1
	c.mu.Unlock()
	return c.load(ctx, next)
}

// CanLoadMore reports whether LoadMore would fetch.
func (c *Controller) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canLoadMoreLocked()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Phase:       c.phase,
		Items:       append([]domain.Product{}, c.items...),
		Pagination:  c.meta,
		CanLoadMore: c.canLoadMoreLocked(),
		Err:         c.err,
	}
}

// Close cancels an in-flight fetch.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.inFlight = false
}

func (c *Controller) canLoadMoreLocked() bool {
	return c.configured &&
		!c.inFlight &&
		c.meta.CurrentPage >= 1 &&
		c.meta.HasMore &&
		len(c.items) < c.cfg.MaxItems
}

func (c *Controller) load(ctx context.Context, page int) error {
	c.mu.Lock()
	if page == 1 {
		if c.cancel != nil {
			c.cancel()
		}
		c.generation++
		c.phase = Loading
	} else {
		if c.inFlight {
			c.mu.Unlock()
			return nil
		}
		c.phase = LoadingMore
	}
	c.inFlight = true
	gen := c.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	fetch := c.source.Fetch
	params := catalog.ListParams{Page: page, Limit: c.cfg.PageSize, Sort: c.sort}
	c.mu.Unlock()

	resp, err := fetch(fetchCtx, params)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug().Int("page", page).Msg("discarding stale page")
		return nil
	}
	c.inFlight = false
	c.cancel = nil
	if err != nil {
		c.phase = Failed
		c.err = err
		c.logger.Warn().Err(err).Int("page", page).Msg("list fetch failed")
		return err
	}

	var items []domain.Product
	if page == 1 {
		items = append(make([]domain.Product, 0, len(resp.Products)), resp.Products...)
	} else {
		items = append(c.items, resp.Products...)
	}
	if len(items) > c.cfg.MaxItems {
		items = items[:c.cfg.MaxItems]
	}
	c.items = items
	c.meta = pagination.WithFetched(resp.Pagination, len(items))
	c.phase = Ready
	c.err = nil
	return nil
}
