// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so that several instances (one per
// test) can coexist.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	availabilityChecks *prometheus.CounterVec
	holds              *prometheus.CounterVec
	bookingsCreated    *prometheus.CounterVec
	notifications      *prometheus.CounterVec
	cmsRequests        *prometheus.HistogramVec
}

// New registers every collector under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		availabilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_checks_total",
			Help:      "Availability checks by outcome.",
		}, []string{"outcome"}),
		holds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_operations_total",
			Help:      "Temporary hold operations by action.",
		}, []string{"action"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by package type.",
		}, []string{"package"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by kind and result.",
		}, []string{"kind", "result"}),
		cmsRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "Latency of calls to the content store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.availabilityChecks, m.holds,
		m.bookingsCreated, m.notifications, m.cmsRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveHTTP records one served request.  All methods are safe on a nil
// receiver so metrics can be switched off.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AvailabilityChecked counts a check with outcome "available" or the
// conflict reason.
func (m *Metrics) AvailabilityChecked(outcome string) {
	if m == nil {
		return
	}
	m.availabilityChecks.WithLabelValues(outcome).Inc()
}

// HoldAction counts hold, release and sweep operations.
func (m *Metrics) HoldAction(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.holds.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) BookingCreated(packageType string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(packageType).Inc()
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// CMSRequest records the latency of one content store call.
func (m *Metrics) CMSRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.cmsRequests.WithLabelValues(method, statusLabel(status)).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 300:
		return "2xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
