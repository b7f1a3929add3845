package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the telemetry catalog the charts are drawn from. Reads return rows in
// ascending timestamp order; the write helpers exist for seeding and tests.
type Store interface {
	ActiveEntities(ctx context.Context) ([]Entity, error)
	VMLoads(ctx context.Context, vmID int64, since time.Time) ([]VMLoad, error)
	GPULoads(ctx context.Context, vmID int64, since time.Time) ([]GPULoad, error)

	Migrate(ctx context.Context) error
	UpsertServer(ctx context.Context, server Server) error
	InsertVM(ctx context.Context, vm VM) (int64, error)
	InsertVMLoad(ctx context.Context, load VMLoad) error
	InsertGPULoad(ctx context.Context, load GPULoad) error

	Close()
}

// Open connects to the store named by databaseURL. postgres:// and postgresql://
// URLs use a pgx pool, sqlite://<path> and file: DSNs use the embedded SQLite driver.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return OpenPostgres(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return OpenSQLite(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", databaseURL)
	}
}
