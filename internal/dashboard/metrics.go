package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRequestsTotal       = "dashboard_requests_total"
	MetricRequestDuration     = "dashboard_request_duration_seconds"
	MetricFetchErrorsTotal    = "dashboard_fetch_errors_total"
	MetricItemsScoredTotal    = "dashboard_items_scored_total"
	MetricEmptyFallbacksTotal = "dashboard_empty_fallbacks_total"
)

// Metrics contains Prometheus metrics for dashboard aggregation.
// All operations are thread-safe.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	fetchErrors     *prometheus.CounterVec
	itemsScored     prometheus.Counter
	emptyFallbacks  prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call
// Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total number of moderator content aggregations by type filter and sort mode",
			},
			[]string{"type", "sort"},
		),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRequestDuration,
			Help:    "Histogram of moderator content aggregation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFetchErrorsTotal,
				Help: "Total number of store fetch failures by content kind and operation",
			},
			[]string{"kind", "op"},
		),
		itemsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricItemsScoredTotal,
			Help: "Total number of content items scored for the moderator dashboard",
		}),
		emptyFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEmptyFallbacksTotal,
			Help: "Total number of aggregations that returned an empty page due to a store failure",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.fetchErrors,
		m.itemsScored,
		m.emptyFallbacks,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records a completed aggregation with its duration.
func (m *Metrics) ObserveRequest(contentType, sortMode string, seconds float64) {
	m.requestsTotal.WithLabelValues(contentType, sortMode).Inc()
	m.requestDuration.Observe(seconds)
}

// IncFetchErrors increments the fetch error counter for a kind and
// operation ("find" or "count").
func (m *Metrics) IncFetchErrors(kind, op string) {
	m.fetchErrors.WithLabelValues(kind, op).Inc()
}

// AddItemsScored adds to the scored item counter.
func (m *Metrics) AddItemsScored(n int) {
	m.itemsScored.Add(float64(n))
}

// IncEmptyFallbacks increments the fail-soft empty page counter.
func (m *Metrics) IncEmptyFallbacks() {
	m.emptyFallbacks.Inc()
}
