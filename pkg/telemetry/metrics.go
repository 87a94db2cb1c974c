package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "helloext"

var Metrics = struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	ExtensionActivations *prometheus.CounterVec
	ExtensionErrors      *prometheus.CounterVec
	TasksTotal           *prometheus.CounterVec
	DocRequests          *prometheus.CounterVec
	ActiveConnections    prometheus.Gauge
	RateLimited          prometheus.Counter
}{
	RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total A2A requests by method and status.",
	}, []string{"method", "status"}),

	RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "A2A request duration in seconds.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method"}),

	ExtensionActivations: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extension_activations_total",
		Help:      "Extension activations by URI and mode (explicit or implicit).",
	}, []string{"uri", "mode"}),

	ExtensionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extension_errors_total",
		Help:      "Structured extension errors by URI and JSON-RPC code.",
	}, []string{"uri", "code"}),

	TasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Tasks reaching a state, by state.",
	}, []string{"state"}),

	DocRequests: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "doc_requests_total",
		Help:      "Documentation server requests by extension and resource.",
	}, []string{"extension", "resource"}),

	ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_websocket_connections",
		Help:      "Number of active WebSocket connections.",
	}),

	RateLimited: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the gateway rate limiter.",
	}),
}

// ObserveExtensionError counts a structured extension error.
func ObserveExtensionError(uri string, code int) {
	Metrics.ExtensionErrors.WithLabelValues(uri, strconv.Itoa(code)).Inc()
}
