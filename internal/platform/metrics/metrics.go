package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the storefront gateway.
type Metrics struct {
	// Admin sign-in
	SignInOutcomes   *prometheus.CounterVec
	StrategyMatches  *prometheus.CounterVec
	ForcedSignOuts   *prometheus.CounterVec
	SignInDurationMs prometheus.Histogram

	// Hosted backend
	BackendRequestDuration *prometheus.HistogramVec
	BackendErrors          *prometheus.CounterVec

	// Public writes and media
	ReviewsSubmitted prometheus.Counter
	ContactMessages  prometheus.Counter
	ImagesUploaded   prometheus.Counter
	ImagesDeleted    prometheus.Counter
	RateLimited      *prometheus.CounterVec

	// HTTP
	EndpointLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SignInOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_admin_signin_outcomes_total",
			Help: "Admin sign-in outcomes, labeled by status and failure kind",
		}, []string{"status", "kind"}),
		StrategyMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_admin_strategy_matches_total",
			Help: "Admin record lookups that matched, labeled by strategy",
		}, []string{"strategy"}),
		ForcedSignOuts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_admin_forced_signouts_total",
			Help: "Sessions signed out because the identity was not an authorized admin",
		}, []string{"kind"}),
		SignInDurationMs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_admin_signin_duration_ms",
			Help:    "Duration of the full admin sign-in cascade in milliseconds",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		BackendRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Latency of hosted backend requests, labeled by operation and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status_class"}),
		BackendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_backend_errors_total",
			Help: "Hosted backend failures, labeled by error category",
		}, []string{"category"}),
		ReviewsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_reviews_submitted_total",
			Help: "Total number of product reviews submitted",
		}),
		ContactMessages: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_contact_messages_total",
			Help: "Total number of contact form submissions stored",
		}),
		ImagesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_product_images_uploaded_total",
			Help: "Total number of product images uploaded",
		}),
		ImagesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_product_images_deleted_total",
			Help: "Total number of product images deleted",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_rate_limited_total",
			Help: "Requests rejected by a rate limiter, labeled by limiter",
		}, []string{"limiter"}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncrementSignInOutcome(status, kind string) {
	m.SignInOutcomes.WithLabelValues(status, kind).Inc()
}

func (m *Metrics) IncrementStrategyMatch(strategy string) {
	m.StrategyMatches.WithLabelValues(strategy).Inc()
}

func (m *Metrics) IncrementForcedSignOut(kind string) {
	m.ForcedSignOuts.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSignInDuration(durationMs float64) {
	m.SignInDurationMs.Observe(durationMs)
}

// ObserveBackendRequest records one backend round trip. A zero status means
// the request never got a response.
func (m *Metrics) ObserveBackendRequest(operation string, status int, d time.Duration) {
	m.BackendRequestDuration.WithLabelValues(operation, statusClass(status)).Observe(d.Seconds())
}

func (m *Metrics) IncrementBackendError(category string) {
	m.BackendErrors.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementReviewsSubmitted() {
	m.ReviewsSubmitted.Inc()
}

func (m *Metrics) IncrementContactMessages() {
	m.ContactMessages.Inc()
}

func (m *Metrics) AddImagesUploaded(n int) {
	m.ImagesUploaded.Add(float64(n))
}

func (m *Metrics) AddImagesDeleted(n int) {
	m.ImagesDeleted.Add(float64(n))
}

func (m *Metrics) IncrementRateLimited(limiter string) {
	m.RateLimited.WithLabelValues(limiter).Inc()
}

// ObserveEndpointLatency records the latency for a given route pattern.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func statusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
