package processor

import (
	"fmt"
	"time"

	"github.com/chambridge/vmonviz/internal/db"
)

// ConfigurationError reports a capacity that cannot be used as a denominator.
type ConfigurationError struct {
	Hostname string
	Field    string
	Value    float64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("vm %s: %s must be positive, got %g", e.Hostname, e.Field, e.Value)
}

// VMPoint is one normalized VM sample.
type VMPoint struct {
	Index     int
	Timestamp time.Time

	// CPULoad is 1.0 per fully loaded core, so multi-core saturation exceeds 1.
	CPULoad float64
	// MemFreeFraction is free memory over total memory. It is plotted on the
	// "Memory Usage" panel as-is; it is not a used fraction.
	MemFreeFraction  float64
	DiskUsedFraction float64
}

// GPUPoint is one normalized GPU sample.
type GPUPoint struct {
	Index           int
	Timestamp       time.Time
	CoreUseFraction float64
	MemUseFraction  float64
}

// ValidateVMCapacity checks the denominators used by NormalizeVMLoad.
func ValidateVMCapacity(e db.Entity) error {
	if !(e.RAMGB > 0) {
		return &ConfigurationError{Hostname: e.Hostname, Field: "ram_gb", Value: e.RAMGB}
	}
	if !(e.DiskSizeGB > 0) {
		return &ConfigurationError{Hostname: e.Hostname, Field: "disk_size_gb", Value: e.DiskSizeGB}
	}
	return nil
}

// ValidateGPUCapacity checks the denominator used by NormalizeGPULoad.
func ValidateGPUCapacity(e db.Entity) error {
	if !(e.GPURAMGB > 0) {
		return &ConfigurationError{Hostname: e.Hostname, Field: "gpu_ram_gb", Value: e.GPURAMGB}
	}
	return nil
}

// NormalizeVMLoad converts a raw sample at ordinal position index.
func NormalizeVMLoad(e db.Entity, index int, s db.VMLoad) (VMPoint, error) {
	if err := ValidateVMCapacity(e); err != nil {
		return VMPoint{}, err
	}
	return VMPoint{
		Index:            index,
		Timestamp:        s.Timestamp,
		CPULoad:          float64(s.Load) / 100,
		MemFreeFraction:  s.MemFreeMB / 1024 / e.RAMGB,
		DiskUsedFraction: 1 - s.DiskFreeMB/1024/e.DiskSizeGB,
	}, nil
}

// NormalizeGPULoad converts a raw GPU sample at ordinal position index.
func NormalizeGPULoad(e db.Entity, index int, s db.GPULoad) (GPUPoint, error) {
	if err := ValidateGPUCapacity(e); err != nil {
		return GPUPoint{}, err
	}
	return GPUPoint{
		Index:           index,
		Timestamp:       s.Timestamp,
		CoreUseFraction: s.CoreUse / 100,
		MemUseFraction:  s.MemUseMB / (e.GPURAMGB * 1024),
	}, nil
}

// NormalizeVMLoads normalizes samples in order, indexing them by position.
func NormalizeVMLoads(e db.Entity, samples []db.VMLoad) ([]VMPoint, error) {
	if err := ValidateVMCapacity(e); err != nil {
		return nil, err
	}
	points := make([]VMPoint, 0, len(samples))
	for i, s := range samples {
		p, err := NormalizeVMLoad(e, i, s)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// NormalizeGPULoads normalizes GPU samples in order, indexing them by position.
func NormalizeGPULoads(e db.Entity, samples []db.GPULoad) ([]GPUPoint, error) {
	if err := ValidateGPUCapacity(e); err != nil {
		return nil, err
	}
	points := make([]GPUPoint, 0, len(samples))
	for i, s := range samples {
		p, err := NormalizeGPULoad(e, i, s)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
