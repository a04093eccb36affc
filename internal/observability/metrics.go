package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streamflow_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	RequestsConsumed    prometheus.Counter
	ComparisonsProduced prometheus.Counter
	TransformErrors     *prometheus.CounterVec // labels: kind (see domain.FailureKind)
	TransformRetries    prometheus.Counter
	AnalysisFailures    *prometheus.CounterVec // labels: kind (see domain.FailureKind)
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// USGS retrieval metrics.
	USGSRequests    *prometheus.CounterVec // labels: outcome={success,error}
	USGSCache       *prometheus.CounterVec // labels: result={hit,miss}
	USGSAPIDuration prometheus.Histogram

	// Scheduler metrics.
	ScheduledRequests *prometheus.CounterVec // labels: outcome={published,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.ComparisonsProduced,
		m.TransformErrors,
		m.TransformRetries,
		m.AnalysisFailures,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.USGSRequests,
		m.USGSCache,
		m.USGSAPIDuration,
		m.ScheduledRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total analysis requests read from the request topic.",
		}),
		ComparisonsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_produced_total",
			Help:      "Total flow comparisons written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Requests skipped because no comparison could be produced, by failure kind.",
		}, []string{"kind"}),
		TransformRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_retries_total",
			Help:      "Transform attempts retried after a transient failure.",
		}),
		AnalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Comparison failures by kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		USGSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usgs_requests_total",
			Help:      "USGS Water Services requests by outcome.",
		}, []string{"outcome"}),
		USGSCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usgs_cache_total",
			Help:      "Series cache lookups by result.",
		}, []string{"result"}),
		USGSAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usgs_api_duration_seconds",
			Help:      "USGS Water Services request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ScheduledRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_requests_total",
			Help:      "Analysis requests published by the scheduler, by outcome.",
		}, []string{"outcome"}),
	}
}
