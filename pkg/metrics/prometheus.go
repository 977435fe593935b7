package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	acquisitions     *prometheus.CounterVec
	strategyFailures *prometheus.CounterVec
	rowsDropped      *prometheus.CounterVec
	sourceUp         *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		acquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartfeed_acquisitions_total",
				Help: "Bar acquisitions by the source that produced them",
			},
			[]string{"source"},
		),
		strategyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartfeed_strategy_failures_total",
				Help: "Acquisition strategy failures by reason",
			},
			[]string{"strategy", "reason"},
		),
		rowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartfeed_rows_dropped_total",
				Help: "Upstream rows skipped because they could not be coerced to a bar",
			},
			[]string{"strategy"},
		),
		sourceUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chartfeed_source_up",
				Help: "1 if the last probe of a live source returned usable bars",
			},
			[]string{"source"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartfeed_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAcquisition counts a completed acquisition by source tag.
func (r *Recorder) RecordAcquisition(source string) {
	r.acquisitions.WithLabelValues(source).Inc()
}

// RecordStrategyFailure counts a strategy that fell through.
func (r *Recorder) RecordStrategyFailure(strategy, reason string) {
	r.strategyFailures.WithLabelValues(strategy, reason).Inc()
}

// RecordRowsDropped counts malformed upstream rows.
func (r *Recorder) RecordRowsDropped(strategy string, n int) {
	if n > 0 {
		r.rowsDropped.WithLabelValues(strategy).Add(float64(n))
	}
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetSourceUp records the result of the latest source probe.
func (r *Recorder) SetSourceUp(source string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	r.sourceUp.WithLabelValues(source).Set(v)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordAcquisition(string) {}
func (Noop) RecordStrategyFailure(string, string) {}
func (Noop) RecordRowsDropped(string, int) {}
func (Noop) RecordLatency(string, float64) {}
func (Noop) SetSourceUp(string, bool) {}
