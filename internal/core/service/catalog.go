package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/catdesk-go/internal/cli/connection"
	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// Catalog endpoints.
const (
	ProductsPath   = "/products"
	AddProductPath = "/products/add"
)

// Operation names, used for the indicator, logs and metrics.
const (
	OpFetchProducts = "fetch_products"
	OpFetchProduct  = "fetch_product"
	OpAddProduct    = "add_product"
	OpUpdateProduct = "update_product"
	OpDeleteProduct = "delete_product"
)

// TokenSource supplies the bearer token at call time.
type TokenSource interface {
	Token() string
}

// Indicator is told when a catalog operation starts and ends, e.g. to
// drive a spinner. End is always called, whatever the outcome.
type Indicator interface {
	Begin(op string)
	End(op string, err error)
}

// CatalogObserver receives per-operation measurements; the metric registry
// implements it.
type CatalogObserver interface {
	ObserveCatalog(op string, elapsed time.Duration, err error)
	SetLoading(loading bool)
}

// ListQuery narrows a product listing. Zero fields are not sent.
type ListQuery struct {
	Limit int
	Skip  int
}

func (q ListQuery) encode() string {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// CatalogStore performs catalog calls and keeps the local product list.
//
// Calls are not queued. Concurrent calls are memory-safe, but the loading
// flag and last error belong to whichever call finished last.
type CatalogStore struct {
	mu       sync.RWMutex
	products []domain.Product
	loading  bool
	lastErr  string

	api       Transport
	session   TokenSource
	logger    logger.Logger
	indicator Indicator
	observer  CatalogObserver
}

// CatalogOption configures a CatalogStore.
type CatalogOption func(*CatalogStore)

// WithCatalogLogger sets the store's logger.
func WithCatalogLogger(l logger.Logger) CatalogOption {
	return func(c *CatalogStore) { c.logger = l }
}

// WithIndicator installs a loading indicator.
func WithIndicator(ind Indicator) CatalogOption {
	return func(c *CatalogStore) { c.indicator = ind }
}

// WithCatalogObserver reports every operation to o.
func WithCatalogObserver(o CatalogObserver) CatalogOption {
	return func(c *CatalogStore) { c.observer = o }
}

// NewCatalogStore creates a store with an empty product list. session is
// consulted for the bearer token on every call.
func NewCatalogStore(api Transport, session TokenSource, opts ...CatalogOption) *CatalogStore {
	c := &CatalogStore{
		products: []domain.Product{},
		api:      api,
		session:  session,
		logger:   logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("store", "catalog")
	return c
}

// track opens the loading scope for op. The returned func closes it and
// must be deferred with a pointer to the operation's named error.
func (c *CatalogStore) track(op string) func(*error) {
	c.mu.Lock()
	c.loading = true
	c.lastErr = ""
	ind := c.indicator
	c.mu.Unlock()

	if ind != nil {
		ind.Begin(op)
	}
	if c.observer != nil {
		c.observer.SetLoading(true)
	}
	start := time.Now()

	return func(errp *error) {
		err := *errp
		elapsed := time.Since(start)

		c.mu.Lock()
		c.loading = false
		if err != nil {
			c.lastErr = domain.ErrorMessage(err)
		}
		c.mu.Unlock()

		if ind != nil {
			ind.End(op, err)
		}
		if c.observer != nil {
			c.observer.SetLoading(false)
			c.observer.ObserveCatalog(op, elapsed, err)
		}
		if err != nil {
			c.logger.Debug("catalog call failed", "op", op, "elapsed", elapsed, "error", err)
		} else {
			c.logger.Debug("catalog call", "op", op, "elapsed", elapsed)
		}
	}
}

// call sends one request with the session's current token.
func (c *CatalogStore) call(ctx context.Context, method, path string, body, out any) error {
	ctx = connection.WithBearerToken(ctx, c.session.Token())
	if err := c.api.DoJSON(ctx, method, path, body, out); err != nil {
		return remoteError(err)
	}
	return nil
}

// remoteError wraps a transport or HTTP failure as a RemoteCallError.
func remoteError(err error) error {
	out := domain.ErrRemoteCall.WithCause(err)
	if apiErr, ok := connection.AsAPIError(err); ok {
		return out.WithStatus(apiErr.Status).WithMessage(apiErr.Error())
	}
	return out.WithDetails(err.Error())
}

func productPath(id domain.ProductID) string {
	return ProductsPath + "/" + url.PathEscape(id.String())
}

// FetchProducts replaces the local list with the server's product list.
func (c *CatalogStore) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	return c.FetchPage(ctx, ListQuery{})
}

// FetchPage is FetchProducts with limit/skip passed through to the server.
func (c *CatalogStore) FetchPage(ctx context.Context, q ListQuery) (_ []domain.Product, err error) {
	defer c.track(OpFetchProducts)(&err)

	var resp struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.call(ctx, http.MethodGet, ProductsPath+q.encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []domain.Product{}
	}

	c.mu.Lock()
	c.products = resp.Products
	c.mu.Unlock()

	return cloneProducts(resp.Products), nil
}

// FetchProductByID returns one product without touching the local list.
func (c *CatalogStore) FetchProductByID(ctx context.Context, id domain.ProductID) (_ domain.Product, err error) {
	defer c.track(OpFetchProduct)(&err)

	var p domain.Product
	if err := c.call(ctx, http.MethodGet, productPath(id), nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddProduct creates a product and appends the server's record to the
// local list. Duplicates are not checked.
func (c *CatalogStore) AddProduct(ctx context.Context, payload domain.ProductPayload) (_ domain.Product, err error) {
	defer c.track(OpAddProduct)(&err)

	var created domain.Product
	if err := c.call(ctx, http.MethodPost, AddProductPath, payload, &created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = append(c.products, created)
	c.mu.Unlock()

	return created.Clone(), nil
}

// UpdateProduct updates a product and replaces the first local entry with
// that id. When no local entry matches the list is left as it is.
func (c *CatalogStore) UpdateProduct(ctx context.Context, id domain.ProductID, payload domain.ProductPayload) (_ domain.Product, err error) {
	defer c.track(OpUpdateProduct)(&err)

	var updated domain.Product
	if err := c.call(ctx, http.MethodPut, productPath(id), payload, &updated); err != nil {
		return nil, err
	}

	c.mu.Lock()
	replaced := false
	for i, p := range c.products {
		if p.ID() == id {
			c.products[i] = updated
			replaced = true
			break
		}
	}
	c.mu.Unlock()

	if !replaced {
		c.logger.Debug("updated product not in local list", "id", id)
	}
	return updated.Clone(), nil
}

// DeleteProduct deletes a product and then drops every local entry with
// that id. Nothing is removed if the call fails.
func (c *CatalogStore) DeleteProduct(ctx context.Context, id domain.ProductID) (err error) {
	defer c.track(OpDeleteProduct)(&err)

	if err := c.call(ctx, http.MethodDelete, productPath(id), nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.products[:0:0]
	for _, p := range c.products {
		if p.ID() != id {
			kept = append(kept, p)
		}
	}
	c.products = kept
	c.mu.Unlock()
	return nil
}

// Products returns a copy of the local list in order.
func (c *CatalogStore) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProducts(c.products)
}

// ProductCount returns the length of the local list.
func (c *CatalogStore) ProductCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// IsLoading reports whether an operation is in flight.
func (c *CatalogStore) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// LastError returns the message of the last failed operation, or "" if the
// last operation succeeded.
func (c *CatalogStore) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
