package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// APIMetrics tracks chart endpoint latency and errors by endpoint name.
type APIMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	sockets prometheus.Gauge
}

func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	factory := promauto.With(reg)
	return &APIMetrics{
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chartfeed",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of chart endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chartfeed",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by chart endpoint and kind",
			},
			[]string{"endpoint", "kind"},
		),
		sockets: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "chartfeed",
				Subsystem: "api",
				Name:      "websocket_connections",
				Help:      "Open chart websocket connections",
			},
		),
	}
}

// Observe records one completed call. Nil receivers are ignored.
func (m *APIMetrics) Observe(endpoint string, start time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Fail counts a rejected or failed call.
func (m *APIMetrics) Fail(endpoint, kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(endpoint, kind).Inc()
}

// SocketOpened and SocketClosed track live websocket connections.
func (m *APIMetrics) SocketOpened() {
	if m != nil {
		m.sockets.Inc()
	}
}

func (m *APIMetrics) SocketClosed() {
	if m != nil {
		m.sockets.Dec()
	}
}
