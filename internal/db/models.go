package db

import "time"

// Server is a hypervisor host. GPURAM is NULL for hosts without GPUs.
type Server struct {
	Hostname string
	GPURAM   *float64
}

// VM is a row of the vms table. Deleted is set once the VM is retired.
type VM struct {
	ID             int64
	Hostname       string
	IP             string
	GPU            bool
	RAM            float64
	Cores          int
	RootDiskSize   float64
	ServerHostname string
	Deleted        *time.Time
}

// Entity is the capacity snapshot of one active VM joined with its server.
type Entity struct {
	ID         int64
	Hostname   string
	IP         string
	HasGPU     bool
	GPURAMGB   float64
	RAMGB      float64
	CoreCount  int
	DiskSizeGB float64
}

// VMLoad is one VM telemetry sample. Load is the CPU load percentage scaled by 100.
type VMLoad struct {
	VMID       int64     `db:"vm_id"`
	Timestamp  time.Time `db:"timestamp"`
	Load       int64     `db:"load"`
	MemFreeMB  float64   `db:"memfree"`
	DiskFreeMB float64   `db:"diskfree"`
}

// GPULoad is one GPU telemetry sample. CoreUse is 0-100, MemUseMB is memory in use.
type GPULoad struct {
	VMID      int64     `db:"vm_id"`
	Timestamp time.Time `db:"timestamp"`
	CoreUse   float64   `db:"core_use"`
	MemUseMB  float64   `db:"mem_use"`
}
