package metrics

import "github.com/prometheus/client_golang/prometheus"

// HierarchyMetrics counts project tree mutations
type HierarchyMetrics struct {
	operationsTotal *prometheus.CounterVec
}

// NewHierarchyMetrics creates and registers hierarchy metrics
func NewHierarchyMetrics(registry prometheus.Registerer) (*HierarchyMetrics, error) {
	m := &HierarchyMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "hierarchy_operations_total",
				Help:      "Project hierarchy mutations, by operation and outcome",
			},
			[]string{"operation", "status"}, // status: success, rejected, error
		),
	}

	if err := registry.Register(m.operationsTotal); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation counts one mutation
func (m *HierarchyMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}
