package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/justjake/kvbench/pkg/bench"
)

// Metrics holds all Prometheus metrics for kvbench.
// It implements bench.SampleObserver; all methods are safe on a nil receiver.
type Metrics struct {
	// Counters
	SamplesTotal *prometheus.CounterVec
	RunsTotal    *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec

	// Gauges
	ResultSeconds *prometheus.GaugeVec

	// Histograms
	SampleDuration *prometheus.HistogramVec
}

var _ bench.SampleObserver = (*Metrics)(nil)

// Variable label names. config.MetricLabelNames lists them so extra labels
// cannot collide.
const (
	labelCase   = "case"
	labelStat   = "stat"
	labelStatus = "status"
	labelType   = "type"
)

// NewMetrics creates a new Metrics instance registered with reg. constLabels
// are attached to every metric; they must pass PrometheusConfig.Validate or
// registration panics.
func NewMetrics(reg prometheus.Registerer, constLabels map[string]string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels(constLabels)

	return &Metrics{
		// Counters
		SamplesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "kvbench_samples_total",
				Help:        "Total number of timed invocations",
				ConstLabels: labels,
			},
			[]string{labelCase},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "kvbench_runs_total",
				Help:        "Total number of benchmark runs by outcome",
				ConstLabels: labels,
			},
			[]string{labelCase, labelStatus},
		),
		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "kvbench_errors_total",
				Help:        "Total number of failed runs by error type",
				ConstLabels: labels,
			},
			[]string{labelType},
		),

		// Gauges
		ResultSeconds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "kvbench_result_seconds",
				Help:        "Latest min/avg/max of a case in seconds",
				ConstLabels: labels,
			},
			[]string{labelCase, labelStat},
		),

		// Histograms
		SampleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "kvbench_sample_duration_seconds",
				Help:        "Duration of a single timed invocation in seconds",
				Buckets:     prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
				ConstLabels: labels,
			},
			[]string{labelCase},
		),
	}
}

// ObserveSample records one timed invocation.
func (m *Metrics) ObserveSample(label string, sample time.Duration) {
	if m == nil {
		return
	}
	m.SamplesTotal.WithLabelValues(label).Inc()
	m.SampleDuration.WithLabelValues(label).Observe(sample.Seconds())
}

// ObserveResult records a completed run.
func (m *Metrics) ObserveResult(label string, result bench.Result) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(label, "success").Inc()
	m.ResultSeconds.WithLabelValues(label, "min").Set(result.Min.Seconds())
	m.ResultSeconds.WithLabelValues(label, "avg").Set(result.Avg.Seconds())
	m.ResultSeconds.WithLabelValues(label, "max").Set(result.Max.Seconds())
}

// ObserveFailure records an aborted run.
func (m *Metrics) ObserveFailure(label string, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(label, "error").Inc()
	m.RecordError(ErrorType(err))
}

// RecordError records an error.
func (m *Metrics) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
