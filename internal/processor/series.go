package processor

import (
	"errors"
	"time"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no samples in window")

// VMSeries holds the plotted VM metrics. All slices have the same length and
// element i belongs to the i-th sample.
type VMSeries struct {
	Index            []float64
	Timestamps       []time.Time
	CPULoad          []float64
	MemFreeFraction  []float64
	DiskUsedFraction []float64
}

func (s VMSeries) Len() int { return len(s.Index) }

// GPUSeries holds the plotted GPU metrics, aligned like VMSeries.
type GPUSeries struct {
	Index           []float64
	Timestamps      []time.Time
	CoreUseFraction []float64
	MemUseFraction  []float64
}

func (s GPUSeries) Len() int { return len(s.Index) }

// BuildVMSeries splits points into per-metric sequences. The x value is the
// ordinal position in points, not the sample time.
func BuildVMSeries(points []VMPoint) (VMSeries, error) {
	if len(points) == 0 {
		return VMSeries{}, ErrNoData
	}
	n := len(points)
	s := VMSeries{
		Index:            make([]float64, n),
		Timestamps:       make([]time.Time, n),
		CPULoad:          make([]float64, n),
		MemFreeFraction:  make([]float64, n),
		DiskUsedFraction: make([]float64, n),
	}
	for i, p := range points {
		s.Index[i] = float64(i)
		s.Timestamps[i] = p.Timestamp
		s.CPULoad[i] = p.CPULoad
		s.MemFreeFraction[i] = p.MemFreeFraction
		s.DiskUsedFraction[i] = p.DiskUsedFraction
	}
	return s, nil
}

// BuildGPUSeries is BuildVMSeries for GPU points.
func BuildGPUSeries(points []GPUPoint) (GPUSeries, error) {
	if len(points) == 0 {
		return GPUSeries{}, ErrNoData
	}
	n := len(points)
	s := GPUSeries{
		Index:           make([]float64, n),
		Timestamps:      make([]time.Time, n),
		CoreUseFraction: make([]float64, n),
		MemUseFraction:  make([]float64, n),
	}
	for i, p := range points {
		s.Index[i] = float64(i)
		s.Timestamps[i] = p.Timestamp
		s.CoreUseFraction[i] = p.CoreUseFraction
		s.MemUseFraction[i] = p.MemUseFraction
	}
	return s, nil
}
