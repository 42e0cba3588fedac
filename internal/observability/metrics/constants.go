// Package metrics defines the Prometheus collectors for catalog operations.
package metrics

// Namespace prefixes every metric name
const Namespace = "aftermidnight"

// Import statuses used as label values
const (
	StatusInserted  = "inserted"
	StatusDuplicate = "duplicate"
	StatusSkipped   = "skipped"
)

// Column evolution outcomes
const (
	ColumnAdded  = "added"
	ColumnFailed = "failed"
)

// importDurationBuckets covers quick rescans through multi-hour archive imports
var importDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}
