package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerFetches *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	rateLimited     prometheus.Counter
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvefeed_provider_fetch_total",
				Help: "Total number of upstream provider fetch attempts",
			},
			[]string{"provider", "outcome"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvefeed_cache_lookup_total",
				Help: "Total number of snapshot cache lookups",
			},
			[]string{"layer", "result"},
		),
		rateLimited: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "curvefeed_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curvefeed_provider_fetch_duration_seconds",
				Help:    "Duration of upstream provider fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}
}

// RecordProviderFetch records the outcome of one provider fetch attempt.
func (r *Recorder) RecordProviderFetch(provider, outcome string) {
	r.providerFetches.WithLabelValues(provider, outcome).Inc()
}

// RecordFetchLatency records provider fetch latency in seconds.
func (r *Recorder) RecordFetchLatency(provider string, seconds float64) {
	r.latency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheLookup records a cache lookup result per layer (hot, store).
func (r *Recorder) RecordCacheLookup(layer, result string) {
	r.cacheLookups.WithLabelValues(layer, result).Inc()
}

// RecordRateLimited records a rejected request.
func (r *Recorder) RecordRateLimited() {
	r.rateLimited.Inc()
}
