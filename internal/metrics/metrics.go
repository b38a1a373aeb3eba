package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Toggle pattern
	TogglesTotal       *prometheus.CounterVec
	BatchQueryFailures *prometheus.CounterVec
	BatchQueryDuration *prometheus.HistogramVec

	// Feed cache and event stream
	FeedCacheHitsTotal   prometheus.Counter
	FeedCacheMissesTotal prometheus.Counter
	QueueEventsTotal     *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "route", "status"},
			),

			TogglesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toggles_total",
					Help: "Toggle operations by relation and outcome (on, off, error)",
				},
				[]string{"relation", "outcome"},
			),
			BatchQueryFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "batch_query_failures_total",
					Help: "Batch status/count queries that failed and returned empty results",
				},
				[]string{"relation", "query"},
			),
			BatchQueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "batch_query_duration_seconds",
					Help:    "Batch status/count query latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"relation", "query"},
			),

			FeedCacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "feed_cache_hits_total",
					Help: "Feed requests served from the cache",
				},
			),
			FeedCacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "feed_cache_misses_total",
					Help: "Feed requests that had to warm the cache",
				},
			),
			QueueEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "queue_events_total",
					Help: "Stream events by type and result (published, handled, failed)",
				},
				[]string{"type", "result"},
			),
		}
	})
	return instance
}

// Get returns the registered metrics, initializing them on first use.
func Get() *Metrics {
	return Initialize()
}
