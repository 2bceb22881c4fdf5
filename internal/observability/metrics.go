package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by the services.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	verifierLatency prometheus.Histogram
	publishFailures *prometheus.CounterVec
	consumed        *prometheus.CounterVec
}

// NewMetrics registers collectors with reg. Pass prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kapok_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kapok_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kapok_http_errors_total",
			Help: "HTTP error responses by route, method and error code",
		}, []string{"path", "method", "code"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kapok_customer_registrations_total",
			Help: "Registration outcomes",
		}, []string{"outcome"}),
		verifierLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kapok_fraud_verifier_duration_seconds",
			Help:    "Duration of fraud verification calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kapok_notification_publish_failures_total",
			Help: "Notification publishes that failed, by destination",
		}, []string{"destination"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kapok_notifications_consumed_total",
			Help: "Notifications consumed from the broker by result",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.requests,
			m.requestLatency,
			m.errors,
			m.registrations,
			m.verifierLatency,
			m.publishFailures,
			m.consumed,
		)
	}
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordRegistration counts a registration outcome.
func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

// ObserveVerifier records the latency of a fraud verification call.
func (m *Metrics) ObserveVerifier(d time.Duration) {
	if m == nil {
		return
	}
	m.verifierLatency.Observe(d.Seconds())
}

// RecordPublishFailure counts a failed notification publish.
func (m *Metrics) RecordPublishFailure(destination string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(destination).Inc()
}

// RecordConsumed counts a consumed notification.
func (m *Metrics) RecordConsumed(result string) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(result).Inc()
}
