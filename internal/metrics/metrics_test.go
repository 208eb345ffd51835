package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Independent(t *testing.T) {
	a, b := New(), New()
	a.Documents.Add(3)
	a.EventsSkipped.WithLabelValues("invalid_cost").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(a.Documents))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Documents))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsSkipped.WithLabelValues("invalid_cost")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.RecordsPersisted.Add(7)
	path := filepath.Join(t.TempDir(), "ropipeline.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ropipeline_records_persisted_total 7")
}
