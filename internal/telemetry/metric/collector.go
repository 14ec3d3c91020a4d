package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/catdesk-go/internal/storage"
)

// statsTimeout bounds the storage stats call made on each scrape.
const statsTimeout = 2 * time.Second

// StateSource reports the live state of the stores at scrape time.
type StateSource interface {
	ProductCount() int
	IsAuthenticated() bool
	StorageStats(ctx context.Context) (*storage.KVStats, error)
}

// Collector exports store state as gauges, read on every scrape.
type Collector struct {
	src StateSource

	products      *prometheus.Desc
	authenticated *prometheus.Desc
	storedKeys    *prometheus.Desc
	storedBytes   *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src StateSource) *Collector {
	return &Collector{
		src: src,
		products: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "catalog", "products"),
			"Products currently held in the local catalog.",
			nil, nil,
		),
		authenticated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "authenticated"),
			"1 if a session token is held.",
			nil, nil,
		),
		storedKeys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "keys"),
			"Keys held by the session storage engine.",
			[]string{"engine"}, nil,
		),
		storedBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "size_bytes"),
			"Size of the session storage in bytes, 0 when the engine cannot tell.",
			[]string{"engine"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.products
	ch <- c.authenticated
	ch <- c.storedKeys
	ch <- c.storedBytes
}

// Collect implements prometheus.Collector. Storage gauges are left out of
// the scrape when the engine cannot report stats.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.products, prometheus.GaugeValue, float64(c.src.ProductCount()))

	auth := 0.0
	if c.src.IsAuthenticated() {
		auth = 1
	}
	ch <- prometheus.MustNewConstMetric(c.authenticated, prometheus.GaugeValue, auth)

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	stats, err := c.src.StorageStats(ctx)
	if err != nil || stats == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.storedKeys, prometheus.GaugeValue, float64(stats.TotalKeys), stats.Engine)
	ch <- prometheus.MustNewConstMetric(c.storedBytes, prometheus.GaugeValue, float64(stats.TotalSize), stats.Engine)
}
