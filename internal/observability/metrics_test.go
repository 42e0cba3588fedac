package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/observability/metrics"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	first, err := NewMetrics()
	require.NoError(t, err)
	second, err := NewMetrics()
	require.NoError(t, err)

	first.Import.RecordFile(metrics.StatusInserted)

	n, err := testutil.GatherAndCount(first.Registry(), "aftermidnight_import_files_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = testutil.GatherAndCount(second.Registry(), "aftermidnight_import_files_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Import.RecordFile(metrics.StatusInserted)
	m.Import.RecordFile(metrics.StatusInserted)
	m.Import.RecordFile(metrics.StatusSkipped)
	m.Import.RecordColumnAdded()
	m.Import.ObserveRun(2 * time.Second)

	expected := `
# HELP aftermidnight_import_files_total Files processed by imports, by outcome
# TYPE aftermidnight_import_files_total counter
aftermidnight_import_files_total{status="inserted"} 2
aftermidnight_import_files_total{status="skipped"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"aftermidnight_import_files_total"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var histogram *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "aftermidnight_import_duration_seconds" {
			histogram = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(1), histogram.GetSampleCount())
	assert.InDelta(t, 2.0, histogram.GetSampleSum(), 1e-9)
}

func TestHierarchyMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Hierarchy.RecordOperation("reparent", "rejected")
	m.Hierarchy.RecordOperation("reparent", "rejected")
	m.Hierarchy.RecordOperation("create", "success")

	n, err := testutil.GatherAndCount(m.Registry(), "aftermidnight_hierarchy_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHookErrors(t *testing.T) {
	t.Cleanup(errors.ClearErrorHooks)

	m, err := NewMetrics()
	require.NoError(t, err)
	m.HookErrors()

	_ = errors.Newf("boom").Component("importer").Category(errors.CategoryImport).Build()

	expected := `
# HELP aftermidnight_errors_total Errors by component and category
# TYPE aftermidnight_errors_total counter
aftermidnight_errors_total{category="image-import",component="importer"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"aftermidnight_errors_total"))
}

func TestWriteTextfile(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Import.RecordFile(metrics.StatusDuplicate)

	path := filepath.Join(t.TempDir(), "textfile", "aftermidnight.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `aftermidnight_import_files_total{status="duplicate"} 1`)
}
