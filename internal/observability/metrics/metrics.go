// Package metrics provides Prometheus instrumentation for verifyprep.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Verification metrics
	verificationPreparedTotal *prometheus.CounterVec
	verificationRunsTotal     *prometheus.CounterVec
)

// Init initializes the metrics system. It registers collectors with the
// default registry and must be called at most once per process.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// One increment per contract payload, labelled by chain network
	verificationPreparedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_prepared_total",
			Help: "Total number of contract verification payloads prepared",
		},
		[]string{"chain", "status"},
	)

	verificationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_runs_total",
			Help: "Total number of verification preparation runs",
		},
		[]string{"result"},
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
