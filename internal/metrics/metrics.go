package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Upstream provider
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_upstream_requests_total",
			Help: "Total number of requests made to the movie metadata provider",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, unauthorized, not_found, bad_request, error, circuit_open
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_upstream_request_duration_seconds",
			Help:    "Latency of provider requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	UpstreamBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_upstream_breaker_state",
			Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Client query cache
	ClientCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_client_cache_events_total",
			Help: "Client query cache lookups by result",
		},
		[]string{"event"}, // hit, miss, shared
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitRejection counts a request turned away by the limiter.
func RecordRateLimitRejection() {
	RateLimitRejections.Inc()
}

// RecordUpstreamRequest records one provider call.
func RecordUpstreamRequest(endpoint, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// SetBreakerState records the provider circuit breaker state.
func SetBreakerState(state float64) {
	UpstreamBreakerState.Set(state)
}

// RecordCacheEvent records a client query cache lookup.
func RecordCacheEvent(event string) {
	ClientCacheEvents.WithLabelValues(event).Inc()
}
