package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

func newCatalogStore(t *testing.T, api *apiServer, token string, opts ...CatalogOption) *CatalogStore {
	t.Helper()
	opts = append([]CatalogOption{WithCatalogLogger(logger.Discard())}, opts...)
	return NewCatalogStore(api.client(), staticToken(token), opts...)
}

func productList(ids ...int) map[string]any {
	products := make([]map[string]any, len(ids))
	for i, id := range ids {
		products[i] = map[string]any{"id": id, "title": "product"}
	}
	return map[string]any{"products": products, "total": len(ids), "skip": 0, "limit": 30}
}

func ids(products []domain.Product) []domain.ProductID {
	out := make([]domain.ProductID, len(products))
	for i, p := range products {
		out[i] = p.ID()
	}
	return out
}

// seed loads the local list with the given ids through FetchProducts.
func seed(t *testing.T, api *apiServer, c *CatalogStore, list ...int) {
	t.Helper()
	api.reply("GET /products", http.StatusOK, productList(list...))
	_, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
}

type observedCall struct {
	op  string
	err error
}

type fakeObserver struct {
	mu      sync.Mutex
	calls   []observedCall
	loading []bool
}

func (f *fakeObserver) ObserveCatalog(op string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, observedCall{op, err})
}

func (f *fakeObserver) SetLoading(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = append(f.loading, v)
}

func TestCatalogStore_FetchProducts(t *testing.T) {
	api := newAPIServer(t)
	api.handle("GET /products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.RawQuery)
		jsonResponse(w, http.StatusOK, productList(1, 2, 3))
	})
	c := newCatalogStore(t, api, "T")

	got, err := c.FetchProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.ProductID{"1", "2", "3"}, ids(got))
	assert.Equal(t, []domain.ProductID{"1", "2", "3"}, ids(c.Products()))
	assert.False(t, c.IsLoading())
	assert.Empty(t, c.LastError())
}

func TestCatalogStore_FetchProductsReplacesWholesale(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2, 3)

	seed(t, api, c, 9)

	assert.Equal(t, []domain.ProductID{"9"}, ids(c.Products()))
}

func TestCatalogStore_FetchPage(t *testing.T) {
	api := newAPIServer(t)
	api.handle("GET /products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("skip"))
		jsonResponse(w, http.StatusOK, productList(21))
	})
	c := newCatalogStore(t, api, "T")

	got, err := c.FetchPage(context.Background(), ListQuery{Limit: 10, Skip: 20})

	require.NoError(t, err)
	assert.Equal(t, []domain.ProductID{"21"}, ids(got))
}

func TestCatalogStore_FetchProductsFailureKeepsList(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2)

	api.reply("GET /products", http.StatusUnauthorized, map[string]any{"message": "Token Expired!"})
	_, err := c.FetchProducts(context.Background())

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusUnauthorized, de.Status)
	assert.Contains(t, c.LastError(), "Token Expired!")
	assert.False(t, c.IsLoading())
	assert.Equal(t, []domain.ProductID{"1", "2"}, ids(c.Products()))
}

func TestCatalogStore_EmptyTokenStillCalls(t *testing.T) {
	api := newAPIServer(t)
	api.handle("GET /products", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		jsonResponse(w, http.StatusUnauthorized, map[string]any{"message": "Authentication Problem"})
	})
	c := newCatalogStore(t, api, "")

	_, err := c.FetchProducts(context.Background())

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	assert.Equal(t, 1, api.requestCount())
}

func TestCatalogStore_TokenReadAtCallTime(t *testing.T) {
	api := newAPIServer(t)
	var seen []string
	api.handle("GET /products/1", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		jsonResponse(w, http.StatusOK, map[string]any{"id": 1})
	})
	sess := NewSessionStore(api.client(), newMemoryStorage(), WithSessionLogger(logger.Discard()))
	c := NewCatalogStore(api.client(), sess, WithCatalogLogger(logger.Discard()))

	_, err := c.FetchProductByID(context.Background(), "1")
	require.NoError(t, err)

	api.reply("POST /auth/login", http.StatusOK, loginPayload("fresh", "R"))
	require.NoError(t, sess.Login(context.Background(), emily))
	_, err = c.FetchProductByID(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer fresh"}, seen)
}

func TestCatalogStore_FetchProductByID(t *testing.T) {
	api := newAPIServer(t)
	api.reply("GET /products/7", http.StatusOK, map[string]any{"id": 7, "title": "Lamp", "price": 12.5})
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2)

	p, err := c.FetchProductByID(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("7"), p.ID())
	assert.Equal(t, "Lamp", p.Title())
	assert.Equal(t, json.Number("12.5"), p["price"])
	assert.Equal(t, []domain.ProductID{"1", "2"}, ids(c.Products()), "no list mutation")
}

func TestCatalogStore_FetchProductByIDNotFound(t *testing.T) {
	api := newAPIServer(t)
	api.reply("GET /products/9999", http.StatusNotFound, map[string]any{"message": "Product with id '9999' not found"})
	c := newCatalogStore(t, api, "T")

	_, err := c.FetchProductByID(context.Background(), "9999")

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	assert.Contains(t, c.LastError(), "not found")
}

func TestCatalogStore_AddProduct(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2)
	api.handle("POST /products/add", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New", body["title"])
		jsonResponse(w, http.StatusCreated, map[string]any{"id": 195, "title": "New"})
	})

	p, err := c.AddProduct(context.Background(), domain.ProductPayload{"title": "New"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("195"), p.ID())
	assert.Equal(t, []domain.ProductID{"1", "2", "195"}, ids(c.Products()))
}

func TestCatalogStore_AddProductNoDedup(t *testing.T) {
	api := newAPIServer(t)
	api.reply("POST /products/add", http.StatusCreated, map[string]any{"id": 195})
	c := newCatalogStore(t, api, "T")

	for i := 0; i < 2; i++ {
		_, err := c.AddProduct(context.Background(), domain.ProductPayload{"title": "x"})
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.ProductID{"195", "195"}, ids(c.Products()))
}

func TestCatalogStore_AddProductFailure(t *testing.T) {
	api := newAPIServer(t)
	api.reply("POST /products/add", http.StatusBadRequest, map[string]any{"message": "bad payload"})
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1)

	_, err := c.AddProduct(context.Background(), domain.ProductPayload{})

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	assert.Equal(t, []domain.ProductID{"1"}, ids(c.Products()))
}

func TestCatalogStore_UpdateProduct(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2, 3)
	api.handle("PUT /products/2", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Renamed", body["title"])
		jsonResponse(w, http.StatusOK, map[string]any{"id": 2, "title": "Renamed"})
	})

	p, err := c.UpdateProduct(context.Background(), "2", domain.ProductPayload{"title": "Renamed"})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title())
	list := c.Products()
	assert.Equal(t, []domain.ProductID{"1", "2", "3"}, ids(list), "order preserved")
	assert.Equal(t, "Renamed", list[1].Title())
}

func TestCatalogStore_UpdateProductReplacesFirstMatchOnly(t *testing.T) {
	api := newAPIServer(t)
	api.reply("POST /products/add", http.StatusCreated, map[string]any{"id": 5, "title": "old"})
	api.reply("PUT /products/5", http.StatusOK, map[string]any{"id": 5, "title": "new"})
	c := newCatalogStore(t, api, "T")
	for i := 0; i < 2; i++ {
		_, err := c.AddProduct(context.Background(), domain.ProductPayload{})
		require.NoError(t, err)
	}

	_, err := c.UpdateProduct(context.Background(), "5", domain.ProductPayload{"title": "new"})
	require.NoError(t, err)

	list := c.Products()
	assert.Equal(t, "new", list[0].Title())
	assert.Equal(t, "old", list[1].Title())
}

func TestCatalogStore_UpdateProductAbsentLocally(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2)
	api.reply("PUT /products/99", http.StatusOK, map[string]any{"id": 99, "title": "remote only"})

	p, err := c.UpdateProduct(context.Background(), "99", domain.ProductPayload{"title": "remote only"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("99"), p.ID())
	assert.Equal(t, []domain.ProductID{"1", "2"}, ids(c.Products()))
}

func TestCatalogStore_DeleteProduct(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2, 3)
	api.reply("DELETE /products/2", http.StatusOK, map[string]any{"id": 2, "isDeleted": true})

	require.NoError(t, c.DeleteProduct(context.Background(), "2"))

	assert.Equal(t, []domain.ProductID{"1", "3"}, ids(c.Products()))
	assert.Equal(t, http.MethodDelete, api.lastRequest().Method)
}

func TestCatalogStore_DeleteProductPaddedID(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2, 3)
	api.reply("DELETE /products/2", http.StatusOK, map[string]any{"id": 2, "isDeleted": true})

	id, err := domain.ParseProductID("02")
	require.NoError(t, err)
	require.NoError(t, c.DeleteProduct(context.Background(), id))

	assert.Equal(t, []domain.ProductID{"1", "3"}, ids(c.Products()))
	assert.Equal(t, "/products/2", api.lastRequest().URL.Path)
}

func TestCatalogStore_DeleteProductRemovesAllMatches(t *testing.T) {
	api := newAPIServer(t)
	api.reply("POST /products/add", http.StatusCreated, map[string]any{"id": 5})
	api.reply("DELETE /products/5", http.StatusOK, nil)
	c := newCatalogStore(t, api, "T")
	for i := 0; i < 3; i++ {
		_, err := c.AddProduct(context.Background(), domain.ProductPayload{})
		require.NoError(t, err)
	}

	require.NoError(t, c.DeleteProduct(context.Background(), "5"))

	assert.Empty(t, c.Products())
}

func TestCatalogStore_DeleteProductFailureKeepsList(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1, 2)
	api.reply("DELETE /products/2", http.StatusForbidden, map[string]any{"message": "forbidden"})

	err := c.DeleteProduct(context.Background(), "2")

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	assert.Equal(t, []domain.ProductID{"1", "2"}, ids(c.Products()))
	assert.Contains(t, c.LastError(), "forbidden")
}

func TestCatalogStore_ErrorClearedOnNextCall(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	api.reply("GET /products", http.StatusInternalServerError, nil)

	_, err := c.FetchProducts(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, c.LastError())

	api.reply("GET /products", http.StatusOK, productList(1))
	_, err = c.FetchProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.LastError())
}

func TestCatalogStore_LoadingScope(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	release := make(chan struct{})
	entered := make(chan struct{})
	api.handle("GET /products", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		jsonResponse(w, http.StatusOK, productList(1))
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.FetchProducts(context.Background())
		done <- err
	}()

	<-entered
	assert.True(t, c.IsLoading(), "loading while the call is in flight")
	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.IsLoading())
}

func TestCatalogStore_LoadingResetOnCancel(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	api.handle("GET /products", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.FetchProducts(ctx)

	require.ErrorIs(t, err, domain.ErrRemoteCall)
	assert.False(t, c.IsLoading())
	assert.NotEmpty(t, c.LastError())
}

func TestCatalogStore_IndicatorAndObserver(t *testing.T) {
	api := newAPIServer(t)
	api.reply("GET /products", http.StatusOK, productList(1))
	api.reply("DELETE /products/1", http.StatusNotFound, map[string]any{"message": "gone"})
	ind := &recordingIndicator{}
	obs := &fakeObserver{}
	c := newCatalogStore(t, api, "T", WithIndicator(ind), WithCatalogObserver(obs))

	_, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Error(t, c.DeleteProduct(context.Background(), "1"))

	assert.Equal(t, []string{
		"begin:" + OpFetchProducts, "end:" + OpFetchProducts,
		"begin:" + OpDeleteProduct, "end:" + OpDeleteProduct,
	}, ind.events)
	assert.NoError(t, ind.errs[0])
	assert.ErrorIs(t, ind.errs[1], domain.ErrRemoteCall)

	require.Len(t, obs.calls, 2)
	assert.Equal(t, OpFetchProducts, obs.calls[0].op)
	assert.Error(t, obs.calls[1].err)
	assert.Equal(t, []bool{true, false, true, false}, obs.loading)
}

func TestCatalogStore_ProductsIsACopy(t *testing.T) {
	api := newAPIServer(t)
	c := newCatalogStore(t, api, "T")
	seed(t, api, c, 1)

	list := c.Products()
	list[0]["title"] = "mutated"
	list[0] = domain.Product{"id": 2}

	assert.Equal(t, "product", c.Products()[0].Title())
	assert.Equal(t, 1, c.ProductCount())
}

func TestCatalogStore_ProductIDEscaped(t *testing.T) {
	api := newAPIServer(t)
	api.handle("GET /products/a b", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/a%20b", r.URL.EscapedPath())
		jsonResponse(w, http.StatusOK, map[string]any{"id": "a b"})
	})
	c := newCatalogStore(t, api, "T")

	p, err := c.FetchProductByID(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("a b"), p.ID())
}
