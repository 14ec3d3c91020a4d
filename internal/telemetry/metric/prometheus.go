// Package metric provides Prometheus metrics for catdesk.
//
// A Registry is created per process. The catalog and session stores
// report through the Observer methods; the shell serves the registry on
// /metrics when shell.metrics_listen is set.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catdesk"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Catalog metrics
	CatalogRequests *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Loading         prometheus.Gauge

	// Session metrics
	Logins  *prometheus.CounterVec
	Logouts prometheus.Counter
}

// NewRegistry creates a registry with the catdesk metrics and the Go
// runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog operations by operation and result.",
		}, []string{"op", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Latency of catalog operations.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		Loading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "loading",
			Help:      "1 while a catalog operation is in flight.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Completed logouts.",
		}),
	}

	r.registry.MustRegister(
		r.CatalogRequests,
		r.RequestDuration,
		r.Loading,
		r.Logins,
		r.Logouts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registerer exposes the underlying registry for additional collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for scraping.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveCatalog records one finished catalog operation.
func (r *Registry) ObserveCatalog(op string, elapsed time.Duration, err error) {
	r.CatalogRequests.WithLabelValues(op, resultOf(err)).Inc()
	r.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetLoading mirrors the catalog loading flag.
func (r *Registry) SetLoading(loading bool) {
	if loading {
		r.Loading.Set(1)
		return
	}
	r.Loading.Set(0)
}

// ObserveLogin records a login attempt.
func (r *Registry) ObserveLogin(err error) {
	r.Logins.WithLabelValues(resultOf(err)).Inc()
}

// ObserveLogout records a logout.
func (r *Registry) ObserveLogout() {
	r.Logouts.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
