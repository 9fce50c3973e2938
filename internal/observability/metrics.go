package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	Queries           prometheus.Counter
	QueriesSuperseded prometheus.Counter
	QueryDuration     prometheus.Histogram

	// Provider metrics.
	CategoryOutcomes *prometheus.CounterVec   // labels: category={weather,risk,air_quality,alert,proximity}, status
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	Fallbacks        *prometheus.CounterVec   // labels: category

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Global event cache metrics.
	EventRefreshes       *prometheus.CounterVec // labels: feed, outcome={success,error}
	EventRefreshDuration prometheus.Histogram
	CachedEvents         *prometheus.GaugeVec // labels: feed
	ProximityAlerts      prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Queries,
		m.QueriesSuperseded,
		m.QueryDuration,
		m.CategoryOutcomes,
		m.ProviderRequests,
		m.ProviderDuration,
		m.Fallbacks,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.EventRefreshes,
		m.EventRefreshDuration,
		m.CachedEvents,
		m.ProximityAlerts,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total risk queries executed.",
		}),
		QueriesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_superseded_total",
			Help:      "Queries discarded because a newer query in the same session started.",
		}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete fan-out query.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		CategoryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_outcomes_total",
			Help:      "Per-category query outcomes by status.",
		}, []string{"category", "status"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fallbacks_total",
			Help:      "Times the fallback provider was tried after a primary failure.",
		}, []string{"category"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		EventRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_refreshes_total",
			Help:      "Global event feed refreshes by feed and outcome.",
		}, []string{"feed", "outcome"}),
		EventRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_refresh_duration_seconds",
			Help:      "Duration of a complete global event cache refresh.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CachedEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_events",
			Help:      "Global hazard events in the current snapshot by feed.",
		}, []string{"feed"}),
		ProximityAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proximity_alerts_total",
			Help:      "Queries that surfaced a proximity alert.",
		}),
	}
}
