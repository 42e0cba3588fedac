// Package observability collects catalog metrics and exports them in the
// Prometheus text format for a node exporter textfile collector.
package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Import    *metrics.ImportMetrics
	Hierarchy *metrics.HierarchyMetrics
	Errors    *metrics.ErrorMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	importMetrics, err := metrics.NewImportMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create import metrics: %w", err)
	}

	hierarchyMetrics, err := metrics.NewHierarchyMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create hierarchy metrics: %w", err)
	}

	errorMetrics, err := metrics.NewErrorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create error metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Import:    importMetrics,
		Hierarchy: hierarchyMetrics,
		Errors:    errorMetrics,
	}, nil
}

// Registry returns the registry holding all collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HookErrors counts every built error by component and category until
// errors.ClearErrorHooks is called.
func (m *Metrics) HookErrors() {
	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		m.Errors.RecordError(ee.GetComponent(), ee.GetCategory())
	})
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("observability").
				Category(errors.CategoryFileIO).
				FileContext(dir).
				Build()
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}
