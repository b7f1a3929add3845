package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.RecordEntities(3)
	r.RecordSamples("vm", 10)
	r.RecordSamples("vm", 5)
	r.RecordChart("vm")
	r.RecordChart("gpu")
	r.RecordFailure("configuration")
	r.RecordRun(time.Unix(1747490400, 0), 1500*time.Millisecond, true)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.entities))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.samplesTotal.WithLabelValues("vm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.chartsWritten.WithLabelValues("gpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failuresTotal.WithLabelValues("configuration")))
	assert.Equal(t, 1747490400.0, testutil.ToFloat64(r.lastRun))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.runDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastSuccess))

	r.RecordRun(time.Unix(1747494000, 0), time.Second, false)

	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastSuccess))
	assert.Equal(t, 1747494000.0, testutil.ToFloat64(r.lastRun))
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordChart("vm")
	path := filepath.Join(t.TempDir(), "vmonviz.prom")

	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `vmonviz_charts_written_total{category="vm"} 1`)
	assert.Contains(t, string(data), "# HELP vmonviz_entities")
}
