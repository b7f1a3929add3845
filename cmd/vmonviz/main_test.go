package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chambridge/vmonviz/internal/batch"
	"github.com/chambridge/vmonviz/internal/config"
	"github.com/chambridge/vmonviz/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(dir, dbPath string) *config.Config {
	return &config.Config{
		DatabaseURL:     "sqlite://" + dbPath,
		OutputDir:       filepath.Join(dir, "charts"),
		LookbackDays:    30,
		WindowPolicy:    batch.WindowTrailing,
		LogLevel:        "info",
		LogFormat:       "console",
		MetricsTextfile: filepath.Join(dir, "vmonviz.prom"),
	}
}

func TestRunWritesMetricsWhenCatalogFails(t *testing.T) {
	// Arrange: a database without the schema, so listing VMs fails
	dir := t.TempDir()
	cfg := testConfig(dir, filepath.Join(dir, "empty.db"))
	core, logs := observer.New(zapcore.InfoLevel)

	// Act
	code := run(context.Background(), cfg, zap.New(core))

	// Assert
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, logs.FilterMessage("batch run failed").Len())
	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vmonviz_last_run_success 0")
}

func TestRunWritesCharts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "loads.db")
	store, err := db.Open(ctx, "sqlite://"+dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	id, err := store.InsertVM(ctx, db.VM{Hostname: "vm1", IP: "10.0.0.1", RAM: 16, Cores: 4, RootDiskSize: 100})
	require.NoError(t, err)
	ts := time.Now().Add(-time.Hour)
	require.NoError(t, store.InsertVMLoad(ctx, db.VMLoad{VMID: id, Timestamp: ts, Load: 150, MemFreeMB: 8192, DiskFreeMB: 51200}))
	store.Close()
	cfg := testConfig(dir, dbPath)

	// Act
	code := run(ctx, cfg, zap.NewNop())

	// Assert
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "vm_loads", "vm1_vm_load.png"))
	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vmonviz_last_run_success 1")
	assert.Contains(t, string(data), `vmonviz_charts_written_total{category="vm"} 1`)
}
