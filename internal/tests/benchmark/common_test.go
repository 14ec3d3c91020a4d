package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/yndnr/catdesk-go/internal/cli/connection"
	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/core/service"
	"github.com/yndnr/catdesk-go/internal/storage"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
	"github.com/yndnr/catdesk-go/internal/tests/fakeapi"
)

// ProductCounts defines the local list sizes for benchmarking.
var ProductCounts = []int{100, 1000}

// stores is a logged-in session and catalog against a fake server.
type stores struct {
	api     *fakeapi.Server
	session *service.SessionStore
	catalog *service.CatalogStore
}

func newStores(b *testing.B, kv storage.KVEngine) *stores {
	b.Helper()
	api := fakeapi.New()
	b.Cleanup(api.Close)

	client := connection.NewHTTPClient(api.URL, connection.Options{
		Timeout: 5 * time.Second,
		Logger:  logger.Discard(),
	})
	session := service.NewSessionStore(client, storage.NewLocalStorage(kv),
		service.WithSessionLogger(logger.Discard()))
	catalog := service.NewCatalogStore(client, session,
		service.WithCatalogLogger(logger.Discard()))

	err := session.Login(context.Background(), domain.Credentials{
		Username: fakeapi.Username,
		Password: fakeapi.Password,
	})
	if err != nil {
		b.Fatalf("login: %v", err)
	}
	return &stores{api: api, session: session, catalog: catalog}
}

// makeProduct builds a product shaped like the API's.
func makeProduct(id int) domain.Product {
	return domain.Product{
		"id":       id,
		"title":    "Product " + strconv.Itoa(id),
		"price":    float64(id%100) + 0.99,
		"stock":    id % 250,
		"brand":    "Bench",
		"category": "benchmark",
		"tags":     []any{"a", "b"},
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithProductCounts runs a benchmark function with various list sizes.
func runWithProductCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("products_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
