package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// daily update pipeline.
type Metrics struct {
	RowsFetched        prometheus.Counter
	RowsPublished      prometheus.Counter
	ValidationWarnings prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Run-level metrics.
	RunDuration   prometheus.Histogram
	PartitionRows prometheus.Histogram

	// Upstream API metrics.
	UpstreamRequests    *prometheus.CounterVec   // labels: source={carto,ppd}, outcome={success,error}
	UpstreamAPIDuration *prometheus.HistogramVec // labels: source={carto,ppd}
	PointsRecovered     prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gvd",
			Name:      "rows_fetched_total",
			Help:      "Total shooting victim rows fetched from the upstream table.",
		}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gvd",
			Name:      "rows_published_total",
			Help:      "Total rows written into published year partitions.",
		}),
		ValidationWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gvd",
			Name:      "validation_warnings_total",
			Help:      "Total schema findings downgraded to warnings in tolerant mode.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gvd",
			Name:      "pipeline_running",
			Help:      "1 while a daily update run is active, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gvd",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete daily update run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PartitionRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gvd",
			Name:      "partition_rows",
			Help:      "Rows per written year partition.",
			Buckets:   []float64{10, 100, 500, 1000, 1500, 2000, 2500, 3000},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gvd",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gvd",
			Name:      "upstream_api_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		PointsRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gvd",
			Name:      "points_recovered_total",
			Help:      "Geometries recovered from the incidents table for null-location rows.",
		}),
	}

	prometheus.MustRegister(
		m.RowsFetched,
		m.RowsPublished,
		m.ValidationWarnings,
		m.PipelineRunning,
		m.RunDuration,
		m.PartitionRows,
		m.UpstreamRequests,
		m.UpstreamAPIDuration,
		m.PointsRecovered,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsFetched:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gvd", Name: "rows_fetched_total"}),
		RowsPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gvd", Name: "rows_published_total"}),
		ValidationWarnings:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gvd", Name: "validation_warnings_total"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "gvd", Name: "pipeline_running"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gvd", Name: "run_duration_seconds"}),
		PartitionRows:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gvd", Name: "partition_rows"}),
		UpstreamRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gvd", Name: "upstream_requests_total"}, []string{"source", "outcome"}),
		UpstreamAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "gvd", Name: "upstream_api_duration_seconds"}, []string{"source"}),
		PointsRecovered:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gvd", Name: "points_recovered_total"}),
	}
}
