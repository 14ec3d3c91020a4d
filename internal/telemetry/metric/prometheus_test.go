package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/catdesk-go/internal/storage"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.CatalogRequests == nil || r.RequestDuration == nil || r.Loading == nil {
		t.Error("catalog metrics not initialised")
	}
	if r.Logins == nil || r.Logouts == nil {
		t.Error("session metrics not initialised")
	}
}

func TestRegistry_ObserveCatalog(t *testing.T) {
	r := NewRegistry()

	r.ObserveCatalog("fetch_products", 120*time.Millisecond, nil)
	r.ObserveCatalog("fetch_products", 80*time.Millisecond, nil)
	r.ObserveCatalog("delete_product", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(r.CatalogRequests.WithLabelValues("fetch_products", ResultOK)); got != 2 {
		t.Errorf("fetch_products ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CatalogRequests.WithLabelValues("delete_product", ResultError)); got != 1 {
		t.Errorf("delete_product error = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.RequestDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestRegistry_SetLoading(t *testing.T) {
	r := NewRegistry()

	r.SetLoading(true)
	if got := testutil.ToFloat64(r.Loading); got != 1 {
		t.Errorf("loading = %v, want 1", got)
	}
	r.SetLoading(false)
	if got := testutil.ToFloat64(r.Loading); got != 0 {
		t.Errorf("loading = %v, want 0", got)
	}
}

func TestRegistry_Session(t *testing.T) {
	r := NewRegistry()

	r.ObserveLogin(nil)
	r.ObserveLogin(errors.New("bad credentials"))
	r.ObserveLogin(errors.New("bad credentials"))
	r.ObserveLogout()

	if got := testutil.ToFloat64(r.Logins.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("logins ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Logins.WithLabelValues(ResultError)); got != 2 {
		t.Errorf("logins error = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.Logouts); got != 1 {
		t.Errorf("logouts = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveCatalog("fetch_product", time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"catdesk_catalog_requests_total",
		"catdesk_catalog_request_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

type fakeState struct {
	products int
	auth     bool
	stats    *storage.KVStats
	statsErr error
}

func (f fakeState) ProductCount() int     { return f.products }
func (f fakeState) IsAuthenticated() bool { return f.auth }

func (f fakeState) StorageStats(context.Context) (*storage.KVStats, error) {
	return f.stats, f.statsErr
}

func TestCollector(t *testing.T) {
	c := NewCollector(fakeState{
		products: 30,
		auth:     true,
		stats:    &storage.KVStats{Engine: storage.EngineBadger, TotalKeys: 3, TotalSize: 2048},
	})

	expected := `
# HELP catdesk_catalog_products Products currently held in the local catalog.
# TYPE catdesk_catalog_products gauge
catdesk_catalog_products 30
# HELP catdesk_session_authenticated 1 if a session token is held.
# TYPE catdesk_session_authenticated gauge
catdesk_session_authenticated 1
# HELP catdesk_storage_keys Keys held by the session storage engine.
# TYPE catdesk_storage_keys gauge
catdesk_storage_keys{engine="badger"} 3
# HELP catdesk_storage_size_bytes Size of the session storage in bytes, 0 when the engine cannot tell.
# TYPE catdesk_storage_size_bytes gauge
catdesk_storage_size_bytes{engine="badger"} 2048
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected collector output: %v", err)
	}
}

func TestCollector_StorageStatsUnavailable(t *testing.T) {
	c := NewCollector(fakeState{products: 1, statsErr: errors.New("closed")})

	if n := testutil.CollectAndCount(c); n != 2 {
		t.Errorf("collected %d metrics, want 2 without storage gauges", n)
	}
}
