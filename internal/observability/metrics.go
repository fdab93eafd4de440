package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_report"

// Metrics holds the Prometheus counters and histograms for ingestion, alerting, and reporting.
type Metrics struct {
	MeasurementsImported prometheus.Counter
	LinesSkipped         prometheus.Counter
	ImportFailures       prometheus.Counter
	ImportDuration       prometheus.Histogram

	// Threshold and alert metrics.
	ThresholdViolations prometheus.Counter
	AlertsDispatched    prometheus.Counter
	AlertsSuppressed    prometheus.Counter
	AlertPublishErrors  prometheus.Counter

	// Report metrics.
	ReportsGenerated *prometheus.CounterVec   // labels: level={network,gateway,sensor}
	ReportDuration   *prometheus.HistogramVec // labels: level
	ReportCache      *prometheus.CounterVec   // labels: level, result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MeasurementsImported,
		m.LinesSkipped,
		m.ImportFailures,
		m.ImportDuration,
		m.ThresholdViolations,
		m.AlertsDispatched,
		m.AlertsSuppressed,
		m.AlertPublishErrors,
		m.ReportsGenerated,
		m.ReportDuration,
		m.ReportCache,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MeasurementsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_imported_total",
			Help:      "Total measurements persisted by the CSV importer.",
		}),
		LinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_lines_skipped_total",
			Help:      "CSV lines skipped because they had fewer than five fields.",
		}),
		ImportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Imports aborted by malformed input or store errors.",
		}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of a complete CSV import.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ThresholdViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_violations_total",
			Help:      "Imported measurements that violated their sensor threshold.",
		}),
		AlertsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dispatched_total",
			Help:      "Violation alerts handed to the alert dispatcher.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Violations not alerted because the network is unknown or has no operators.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Alerts the dispatcher failed to deliver.",
		}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports built, by level.",
		}, []string{"level"}),
		ReportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent loading measurements and building a report.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"level"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by level and result.",
		}, []string{"level", "result"}),
	}
}
