package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics contains Prometheus metrics for imports and schema evolution
type ImportMetrics struct {
	filesTotal      *prometheus.CounterVec
	columnsTotal    *prometheus.CounterVec
	durationSeconds prometheus.Histogram
	runsTotal       prometheus.Counter
}

// NewImportMetrics creates and registers import metrics
func NewImportMetrics(registry prometheus.Registerer) (*ImportMetrics, error) {
	m := &ImportMetrics{
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "import_files_total",
				Help:      "Files processed by imports, by outcome",
			},
			[]string{"status"}, // inserted, duplicate, skipped
		),
		columnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "schema_columns_total",
				Help:      "Dynamic image columns the schema evolver tried to add, by outcome",
			},
			[]string{"result"},
		),
		durationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "import_duration_seconds",
				Help:      "Duration of completed import runs",
				Buckets:   importDurationBuckets,
			},
		),
		runsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "import_runs_total",
				Help:      "Completed import runs",
			},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordFile counts one processed file
func (m *ImportMetrics) RecordFile(status string) {
	m.filesTotal.WithLabelValues(status).Inc()
}

// ObserveRun records a completed run
func (m *ImportMetrics) ObserveRun(duration time.Duration) {
	m.runsTotal.Inc()
	m.durationSeconds.Observe(duration.Seconds())
}

// RecordColumnAdded counts a column added by the schema evolver
func (m *ImportMetrics) RecordColumnAdded() {
	m.columnsTotal.WithLabelValues(ColumnAdded).Inc()
}

// RecordColumnFailed counts a column the schema evolver could not add
func (m *ImportMetrics) RecordColumnFailed() {
	m.columnsTotal.WithLabelValues(ColumnFailed).Inc()
}

// Describe implements prometheus.Collector
func (m *ImportMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.filesTotal.Describe(ch)
	m.columnsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.runsTotal.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *ImportMetrics) Collect(ch chan<- prometheus.Metric) {
	m.filesTotal.Collect(ch)
	m.columnsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.runsTotal.Collect(ch)
}
