package db

import (
	"context"
	"testing"
	"time"

	"github.com/chambridge/vmonviz/internal/db/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	pool, _ := testutils.SetupTestDB(t)
	store := NewPostgresStore(pool)

	exerciseStore(t, store)
}

func TestPostgresInsertVMLoad(t *testing.T) {
	pool, newTx := testutils.SetupTestDB(t)
	tx := newTx()
	defer tx.Rollback(context.Background())

	store := NewPostgresStore(pool)
	ctx := context.Background()

	vmID, err := store.InsertVM(ctx, VM{Hostname: "vm1", IP: "10.0.0.1", RAM: 16, Cores: 4, RootDiskSize: 100})
	require.NoError(t, err)

	timestamp, _ := time.Parse("2006-01-02 15:04:05 +0000 MST", "2025-05-17 14:00:00 +0000 UTC")
	err = store.InsertVMLoad(ctx, VMLoad{VMID: vmID, Timestamp: timestamp, Load: 150, MemFreeMB: 8192, DiskFreeMB: 51200})
	assert.NoError(t, err)

	var count int
	err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM vm_loads WHERE vm_id = $1", vmID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count, "Expected one row in vm_loads")
}
