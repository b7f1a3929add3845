package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	// Blank import for the sqlite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite_init.sql
var sqliteSchema string

// SQLiteStore keeps the same tables as PostgresStore in a single file. Timestamps
// are stored as unix nanoseconds so range filters compare numerically.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, which may be a plain file path or a
// file: DSN.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ActiveEntities(ctx context.Context) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.hostname, v.ip, v.gpu, COALESCE(srv.gpu_ram, 0), v.ram, v.cores, v.root_disk_size
		FROM vms v
		LEFT JOIN servers srv ON srv.hostname = v.server_hostname
		WHERE v.deleted IS NULL
		ORDER BY v.id`)
	if err != nil {
		return nil, fetchErr("vms", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Hostname, &e.IP, &e.HasGPU, &e.GPURAMGB, &e.RAMGB, &e.CoreCount, &e.DiskSizeGB); err != nil {
			return nil, fetchErr("vms", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("vms", err)
	}
	return entities, nil
}

func (s *SQLiteStore) VMLoads(ctx context.Context, vmID int64, since time.Time) ([]VMLoad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vm_id, timestamp, load, memfree, diskfree
		FROM vm_loads
		WHERE vm_id = ? AND timestamp >= ?
		ORDER BY timestamp`, vmID, since.UnixNano())
	if err != nil {
		return nil, fetchErr("vm_loads", err)
	}
	defer rows.Close()

	var loads []VMLoad
	for rows.Next() {
		var l VMLoad
		var ts int64
		if err := rows.Scan(&l.VMID, &ts, &l.Load, &l.MemFreeMB, &l.DiskFreeMB); err != nil {
			return nil, fetchErr("vm_loads", err)
		}
		l.Timestamp = time.Unix(0, ts).UTC()
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("vm_loads", err)
	}
	return loads, nil
}

func (s *SQLiteStore) GPULoads(ctx context.Context, vmID int64, since time.Time) ([]GPULoad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vm_id, timestamp, core_use, mem_use
		FROM gpu_loads
		WHERE vm_id = ? AND timestamp >= ?
		ORDER BY timestamp`, vmID, since.UnixNano())
	if err != nil {
		return nil, fetchErr("gpu_loads", err)
	}
	defer rows.Close()

	var loads []GPULoad
	for rows.Next() {
		var l GPULoad
		var ts int64
		if err := rows.Scan(&l.VMID, &ts, &l.CoreUse, &l.MemUseMB); err != nil {
			return nil, fetchErr("gpu_loads", err)
		}
		l.Timestamp = time.Unix(0, ts).UTC()
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("gpu_loads", err)
	}
	return loads, nil
}

func (s *SQLiteStore) UpsertServer(ctx context.Context, server Server) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO servers (hostname, gpu_ram) VALUES (?, ?)
		 ON CONFLICT (hostname) DO UPDATE SET gpu_ram = excluded.gpu_ram`,
		server.Hostname, server.GPURAM)
	return err
}

func (s *SQLiteStore) InsertVM(ctx context.Context, vm VM) (int64, error) {
	var deleted any
	if vm.Deleted != nil {
		deleted = vm.Deleted.UnixNano()
	}
	gpu := 0
	if vm.GPU {
		gpu = 1
	}
	var serverHostname any
	if vm.ServerHostname != "" {
		serverHostname = vm.ServerHostname
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO vms (hostname, ip, gpu, ram, cores, root_disk_size, server_hostname, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		vm.Hostname, vm.IP, gpu, vm.RAM, vm.Cores, vm.RootDiskSize, serverHostname, deleted)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) InsertVMLoad(ctx context.Context, load VMLoad) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vm_loads (vm_id, timestamp, load, memfree, diskfree) VALUES (?, ?, ?, ?, ?)`,
		load.VMID, load.Timestamp.UnixNano(), load.Load, load.MemFreeMB, load.DiskFreeMB)
	return err
}

func (s *SQLiteStore) InsertGPULoad(ctx context.Context, load GPULoad) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gpu_loads (vm_id, timestamp, core_use, mem_use) VALUES (?, ?, ?, ?)`,
		load.VMID, load.Timestamp.UnixNano(), load.CoreUse, load.MemUseMB)
	return err
}
