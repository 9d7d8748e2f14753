package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationsTotal   *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec
	CacheEvictionsTotal    *prometheus.CounterVec
	CacheEntries           *prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Image preload metrics
	PreloadsStarted  prometheus.Counter
	PreloadsSkipped  *prometheus.CounterVec
	PreloadsFinished *prometheus.CounterVec
	PreloadsInFlight prometheus.Gauge

	// Image load tracker metrics
	ImageLoadAttempts *prometheus.CounterVec

	// Lightbox metrics
	LightboxSessionsActive prometheus.Gauge
	LightboxNavigations    *prometheus.CounterVec

	// Recommendation metrics
	GorseRecommendations *prometheus.CounterVec
	GorseErrors          *prometheus.CounterVec
	RelatedFallbacks     prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
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
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),
			CacheOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_operations_total",
					Help: "Total number of cache operations",
				},
				[]string{"operation", "cache_name"},
			),
			CacheOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache_name"},
			),
			CacheEvictionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_evictions_total",
					Help: "Total number of cache evictions",
				},
				[]string{"cache_name"},
			),
			CacheEntries: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "cache_entries",
					Help: "Number of entries currently held by an in-process cache",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			PreloadsStarted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "image_preloads_started_total",
					Help: "Total number of image preloads started",
				},
			),
			PreloadsSkipped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "image_preloads_skipped_total",
					Help: "Preload requests not started, by reason",
				},
				[]string{"reason"},
			),
			PreloadsFinished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "image_preloads_finished_total",
					Help: "Preload fetches that finished, by outcome",
				},
				[]string{"outcome"},
			),
			PreloadsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "image_preloads_tracked",
					Help: "Number of image URLs currently tracked by the preload manager",
				},
			),

			ImageLoadAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "image_load_attempts_total",
					Help: "Image load attempts by resulting state",
				},
				[]string{"state"},
			),

			LightboxSessionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "lightbox_sessions_active",
					Help: "Number of lightbox sessions held by the registry",
				},
			),
			LightboxNavigations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lightbox_navigations_total",
					Help: "Lightbox navigation requests by operation and result",
				},
				[]string{"operation", "result"},
			),

			GorseRecommendations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gorse_recommendations_total",
					Help: "Total number of recommendations fetched from Gorse",
				},
				[]string{"recommendation_type"},
			),
			GorseErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gorse_errors_total",
					Help: "Total number of Gorse errors",
				},
				[]string{"error_type"},
			),
			RelatedFallbacks: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "related_content_fallbacks_total",
					Help: "Related-content requests served by the tag-overlap fallback",
				},
			),
			CircuitBreakerState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "circuit_breaker_state",
					Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
				},
				[]string{"name"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}
