package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. All counters are registered on a
// dedicated registry so tests can instantiate independent sets.
type Metrics struct {
	registry *prometheus.Registry

	FeedFetches       prometheus.Counter
	FeedFailures      prometheus.Counter
	FeedRowsSkipped   prometheus.Counter
	DegradedResponses prometheus.Counter
}

// New creates and registers the service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		FeedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "live_feed_fetches_total",
			Help: "Total number of live feed fetch attempts",
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "live_feed_failures_total",
			Help: "Total number of failed live feed fetches",
		}),
		FeedRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "live_feed_rows_skipped_total",
			Help: "Total number of feed rows skipped due to unparseable fields",
		}),
		DegradedResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "degraded_responses_total",
			Help: "Total number of responses served without live data",
		}),
	}
	reg.MustRegister(m.FeedFetches, m.FeedFailures, m.FeedRowsSkipped, m.DegradedResponses)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
