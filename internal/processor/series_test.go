package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVMSeries(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		s, err := BuildVMSeries(nil)

		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, 0, s.Len())
	})

	for _, n := range []int{1, 2, 17, 720} {
		points := make([]VMPoint, n)
		base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		for i := range points {
			points[i] = VMPoint{
				Index:            i,
				Timestamp:        base.Add(time.Duration(i) * time.Hour),
				CPULoad:          float64(i) / 10,
				MemFreeFraction:  0.5,
				DiskUsedFraction: 0.25,
			}
		}

		s, err := BuildVMSeries(points)

		require.NoError(t, err)
		assert.Equal(t, n, s.Len())
		assert.Len(t, s.Timestamps, n)
		assert.Len(t, s.CPULoad, n)
		assert.Len(t, s.MemFreeFraction, n)
		assert.Len(t, s.DiskUsedFraction, n)
		assert.Equal(t, float64(n-1), s.Index[n-1])
		assert.Equal(t, points[n-1].CPULoad, s.CPULoad[n-1])
		assert.Equal(t, points[n-1].Timestamp, s.Timestamps[n-1])
	}
}

func TestBuildGPUSeries(t *testing.T) {
	_, err := BuildGPUSeries([]GPUPoint{})
	assert.ErrorIs(t, err, ErrNoData)

	s, err := BuildGPUSeries([]GPUPoint{
		{Index: 0, CoreUseFraction: 0.75, MemUseFraction: 0.5},
		{Index: 1, CoreUseFraction: 1.2, MemUseFraction: 0.6},
	})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, s.Index)
	assert.Equal(t, []float64{0.75, 1.2}, s.CoreUseFraction)
	assert.Equal(t, []float64{0.5, 0.6}, s.MemUseFraction)
}
