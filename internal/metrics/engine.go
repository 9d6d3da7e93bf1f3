package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	AccessorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clusterdb",
			Name:      "accessor_cache_total",
			Help:      "Accessor cache lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	AccessorCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clusterdb",
			Name:      "accessor_cache_size",
			Help:      "Number of bound accessors held in memory",
		},
	)

	IndexBuildFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clusterdb",
			Name:      "index_build_failures_total",
			Help:      "Best-effort index creations that failed",
		},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clusterdb",
			Name:      "events_published_total",
			Help:      "Domain events handed to the event bus",
		},
		[]string{"topic", "status"}, // status: "ok" / "error"
	)

	CountCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clusterdb",
			Name:      "count_cache_total",
			Help:      "Document count cache hits and misses",
		},
		[]string{"result"},
	)

	CounterDriftTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clusterdb",
			Name:      "document_counter_drift_total",
			Help:      "Document counter updates that failed after a successful write",
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(AccessorCacheTotal)
	prometheus.MustRegister(AccessorCacheSize)
	prometheus.MustRegister(IndexBuildFailuresTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(CountCacheTotal)
	prometheus.MustRegister(CounterDriftTotal)
	engineMetricsRegistered = true
}
