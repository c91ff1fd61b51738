package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auv_align"

// Metrics holds the Prometheus counters, histograms, and gauges for an
// alignment run.
type Metrics struct {
	VariablesConsidered prometheus.Counter
	VariablesAligned    prometheus.Counter
	VariablesSkipped    *prometheus.CounterVec // labels: reason
	VariablesIgnored    prometheus.Counter

	// Sample metrics.
	AlignedSamples      prometheus.Counter
	ExtrapolatedSamples prometheus.Counter

	// Run metrics.
	RunDuration    prometheus.Histogram
	LastRunSuccess prometheus.Gauge

	// Notification metrics.
	Notifications *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all alignment metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.VariablesConsidered,
		m.VariablesAligned,
		m.VariablesSkipped,
		m.VariablesIgnored,
		m.AlignedSamples,
		m.ExtrapolatedSamples,
		m.RunDuration,
		m.LastRunSuccess,
		m.Notifications,
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
		VariablesConsidered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_considered_total",
			Help:      "Total measurement variables considered for alignment.",
		}),
		VariablesAligned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_aligned_total",
			Help:      "Total variables written with aligned coordinates.",
		}),
		VariablesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_skipped_total",
			Help:      "Measurement variables dropped from the output, by reason.",
		}, []string{"reason"}),
		VariablesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_ignored_total",
			Help:      "Coordinate and filtered variables that are not measurements.",
		}),
		AlignedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aligned_samples_total",
			Help:      "Total measurement samples given interpolated coordinates.",
		}),
		ExtrapolatedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extrapolated_samples_total",
			Help:      "Samples of accepted variables that lie outside reference coverage.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete align and write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run wrote its output, 0 otherwise.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Completion notifications published, by outcome.",
		}, []string{"outcome"}),
	}
}

// WriteTextfile writes the default registry in the node_exporter textfile
// format. Batch runs have no scrape endpoint, so this is how their metrics
// leave the process.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
