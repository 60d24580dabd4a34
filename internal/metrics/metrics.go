package metrics

import (
	"time"

	"github.com/lox/booking-search/internal/query"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booking_search"

// Metrics holds the Prometheus collectors for searches, rebuilds and HTTP
// requests. It implements search.Recorder.
type Metrics struct {
	searchesTotal       *prometheus.CounterVec
	searchDuration      *prometheus.HistogramVec
	searchHits          *prometheus.HistogramVec
	rebuildsTotal       *prometheus.CounterVec
	rebuildDuration     prometheus.Histogram
	indexedDocuments    prometheus.Gauge
	rejectedDocuments   prometheus.Gauge
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of searches",
			},
			[]string{"mode", "outcome"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		searchHits: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_matches",
				Help:      "Number of bookings matched per search",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"mode"},
		),
		rebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_rebuilds_total",
				Help:      "Total number of index rebuilds",
			},
			[]string{"status"},
		),
		rebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_rebuild_duration_seconds",
				Help:      "Index rebuild duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		indexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_documents",
				Help:      "Number of bookings in the active index",
			},
		),
		rejectedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_rejected_documents",
				Help:      "Number of malformed bookings skipped by the last rebuild",
			},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.searchesTotal,
		m.searchDuration,
		m.searchHits,
		m.rebuildsTotal,
		m.rebuildDuration,
		m.indexedDocuments,
		m.rejectedDocuments,
		m.httpRequestDuration,
		m.httpRequestsTotal,
	)
	return m
}

// ObserveSearch records a completed search
func (m *Metrics) ObserveSearch(mode query.Mode, outcome string, duration time.Duration, total int) {
	m.searchesTotal.WithLabelValues(string(mode), outcome).Inc()
	m.searchDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	m.searchHits.WithLabelValues(string(mode)).Observe(float64(total))
}

// ObserveRebuild records a rebuild. Gauges only move when a new index was
// published.
func (m *Metrics) ObserveRebuild(duration time.Duration, published bool, indexed, rejected int, err error) {
	m.rebuildDuration.Observe(duration.Seconds())

	switch {
	case !published:
		m.rebuildsTotal.WithLabelValues("failed").Inc()
		return
	case err != nil:
		m.rebuildsTotal.WithLabelValues("partial").Inc()
	default:
		m.rebuildsTotal.WithLabelValues("ok").Inc()
	}
	m.indexedDocuments.Set(float64(indexed))
	m.rejectedDocuments.Set(float64(rejected))
}
