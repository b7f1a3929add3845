package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/chambridge/vmonviz/internal/config"
	"github.com/chambridge/vmonviz/internal/db"
	"github.com/google/uuid"
)

// demoVM describes one VM to create and how busy it should look
type demoVM struct {
	vm       db.VM
	baseLoad float64
	memUsed  float64
	diskUsed float64
}

// wave returns a daily cycle between 0 and 1 for the given hour
func wave(hour int, phase float64) float64 {
	return (math.Sin(2*math.Pi*float64(hour)/24+phase) + 1) / 2
}

func seed(ctx context.Context, store db.Store, end time.Time, days int) error {
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	suffix := uuid.New().String()[:8]
	gpuHost := fmt.Sprintf("hv-gpu-%s", suffix)
	cpuHost := fmt.Sprintf("hv-cpu-%s", suffix)
	gpuRAM := 24.0
	if err := store.UpsertServer(ctx, db.Server{Hostname: gpuHost, GPURAM: &gpuRAM}); err != nil {
		return err
	}
	if err := store.UpsertServer(ctx, db.Server{Hostname: cpuHost}); err != nil {
		return err
	}

	vms := []demoVM{
		{vm: db.VM{Hostname: "web-" + suffix, IP: "10.10.0.11", RAM: 16, Cores: 4, RootDiskSize: 100, ServerHostname: cpuHost}, baseLoad: 40, memUsed: 0.55, diskUsed: 0.35},
		{vm: db.VM{Hostname: "batch-" + suffix, IP: "10.10.0.12", RAM: 64, Cores: 16, RootDiskSize: 500, ServerHostname: cpuHost}, baseLoad: 120, memUsed: 0.8, diskUsed: 0.7},
		{vm: db.VM{Hostname: "train-" + suffix, IP: "10.10.0.21", GPU: true, RAM: 128, Cores: 32, RootDiskSize: 1000, ServerHostname: gpuHost}, baseLoad: 90, memUsed: 0.6, diskUsed: 0.5},
		// zero disk size, expected to fail with a configuration error
		{vm: db.VM{Hostname: "misconfigured-" + suffix, IP: "10.10.0.31", RAM: 8, Cores: 2, RootDiskSize: 0, ServerHostname: cpuHost}, baseLoad: 20, memUsed: 0.3, diskUsed: 0},
	}

	start := end.AddDate(0, 0, -days)
	for i, d := range vms {
		id, err := store.InsertVM(ctx, d.vm)
		if err != nil {
			return err
		}
		phase := float64(i)
		hour := 0
		for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
			w := wave(hour, phase)
			load := db.VMLoad{
				VMID:       id,
				Timestamp:  ts,
				Load:       int64(d.baseLoad * (0.5 + w)),
				MemFreeMB:  d.vm.RAM * 1024 * (1 - d.memUsed*(0.8+0.2*w)),
				DiskFreeMB: d.vm.RootDiskSize * 1024 * (1 - d.diskUsed),
			}
			if err := store.InsertVMLoad(ctx, load); err != nil {
				return err
			}
			if d.vm.GPU {
				gpu := db.GPULoad{
					VMID:      id,
					Timestamp: ts,
					CoreUse:   100 * w,
					MemUseMB:  gpuRAM * 1024 * (0.3 + 0.6*w),
				}
				if err := store.InsertGPULoad(ctx, gpu); err != nil {
					return err
				}
			}
			hour++
		}
		fmt.Printf("Seeded %s (id %d)\n", d.vm.Hostname, id)
	}
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	end := time.Now().UTC().Truncate(time.Hour)
	if err := seed(ctx, store, end, cfg.LookbackDays); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed demo data: %v\n", err)
		store.Close()
		os.Exit(1)
	}

	fmt.Printf("Successfully seeded %d days of hourly samples\n", cfg.LookbackDays)
}
