package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginAttemptsTotal  *prometheus.CounterVec
	AuthRejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on a fresh
// registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmb_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rmb_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmb_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		AuthRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmb_auth_rejections_total",
				Help: "Requests rejected by the authorization gates, by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.AuthRejectionsTotal,
	)
	return m
}

// ObserveRequest records one handled HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordLogin records a login attempt outcome ("success", "failed",
// "replay", "disabled")
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthRejection records a gate rejection by reason
func (m *Metrics) RecordAuthRejection(reason string) {
	m.AuthRejectionsTotal.WithLabelValues(reason).Inc()
}

// Handler exposes the metrics endpoint for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
