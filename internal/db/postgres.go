package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/0001_init.up.sql
var postgresSchema string

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres creates a pool for databaseURL and checks that the server answers.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

func (r *PostgresStore) Close() {
	r.db.Close()
}

func (r *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ActiveEntities returns every VM that has not been deleted, joined with the GPU
// RAM of its server (0 when the server reports none).
func (r *PostgresStore) ActiveEntities(ctx context.Context) ([]Entity, error) {
	query := `
		SELECT
			v.id,
			v.hostname,
			v.ip,
			v.gpu,
			COALESCE(s.gpu_ram, 0) AS gpu_ram,
			v.ram,
			v.cores,
			v.root_disk_size
		FROM vms v
		LEFT JOIN servers s ON s.hostname = v.server_hostname
		WHERE v.deleted IS NULL
		ORDER BY v.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fetchErr("vms", err)
	}
	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entity, error) {
		var e Entity
		err := row.Scan(&e.ID, &e.Hostname, &e.IP, &e.HasGPU, &e.GPURAMGB, &e.RAMGB, &e.CoreCount, &e.DiskSizeGB)
		return e, err
	})
	if err != nil {
		return nil, fetchErr("vms", err)
	}
	return entities, nil
}

func (r *PostgresStore) VMLoads(ctx context.Context, vmID int64, since time.Time) ([]VMLoad, error) {
	rows, err := r.db.Query(ctx, `
		SELECT vm_id, timestamp, load, memfree, diskfree
		FROM vm_loads
		WHERE vm_id = $1 AND timestamp >= $2
		ORDER BY timestamp`, vmID, since)
	if err != nil {
		return nil, fetchErr("vm_loads", err)
	}
	loads, err := pgx.CollectRows(rows, pgx.RowToStructByName[VMLoad])
	if err != nil {
		return nil, fetchErr("vm_loads", err)
	}
	return loads, nil
}

func (r *PostgresStore) GPULoads(ctx context.Context, vmID int64, since time.Time) ([]GPULoad, error) {
	rows, err := r.db.Query(ctx, `
		SELECT vm_id, timestamp, core_use, mem_use
		FROM gpu_loads
		WHERE vm_id = $1 AND timestamp >= $2
		ORDER BY timestamp`, vmID, since)
	if err != nil {
		return nil, fetchErr("gpu_loads", err)
	}
	loads, err := pgx.CollectRows(rows, pgx.RowToStructByName[GPULoad])
	if err != nil {
		return nil, fetchErr("gpu_loads", err)
	}
	return loads, nil
}

func (r *PostgresStore) UpsertServer(ctx context.Context, server Server) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO servers (hostname, gpu_ram) VALUES ($1, $2)
		 ON CONFLICT (hostname) DO UPDATE SET gpu_ram = EXCLUDED.gpu_ram`,
		server.Hostname, server.GPURAM)
	return err
}

func (r *PostgresStore) InsertVM(ctx context.Context, vm VM) (int64, error) {
	var id int64
	query := `
		INSERT INTO vms (hostname, ip, gpu, ram, cores, root_disk_size, server_hostname, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING id`
	err := r.db.QueryRow(ctx, query,
		vm.Hostname, vm.IP, vm.GPU, vm.RAM, vm.Cores, vm.RootDiskSize, vm.ServerHostname, vm.Deleted).Scan(&id)
	return id, err
}

func (r *PostgresStore) InsertVMLoad(ctx context.Context, load VMLoad) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO vm_loads (vm_id, timestamp, load, memfree, diskfree)
		 VALUES ($1, $2, $3, $4, $5)`,
		load.VMID, load.Timestamp, load.Load, load.MemFreeMB, load.DiskFreeMB)
	return err
}

func (r *PostgresStore) InsertGPULoad(ctx context.Context, load GPULoad) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO gpu_loads (vm_id, timestamp, core_use, mem_use)
		 VALUES ($1, $2, $3, $4)`,
		load.VMID, load.Timestamp, load.CoreUse, load.MemUseMB)
	return err
}
