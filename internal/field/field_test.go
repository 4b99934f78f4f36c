package field_test

import (
	"math"
	"sync"
	"testing"

	"github.com/anisocore/metricadapt/internal/field"
	"github.com/anisocore/metricadapt/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMetricProjectsToSPD(t *testing.T) {
	f := field.New(tensor.D2, 3)
	f.SetMetric(1, []float64{2, 1, 1, -5})
	raw := f.At(1)
	require.Len(t, raw, 4)
	// SPD: both diagonal entries positive, symmetric.
	assert.Greater(t, raw[0], 0.0)
	assert.Greater(t, raw[3], 0.0)
	assert.InDelta(t, raw[1], raw[2], 1e-9)
}

func TestSetMetricShapeMismatchPanics(t *testing.T) {
	f := field.New(tensor.D2, 1)
	assert.Panics(t, func() {
		f.SetMetric(0, make([]float64, 9))
	})
}

func TestSetMetricNonFiniteIsLocalRecoveryNotPanic(t *testing.T) {
	f := field.New(tensor.D2, 1)
	f.SetMetric(0, []float64{1, 0, 0, 2})
	before := f.At(0)

	assert.NotPanics(t, func() {
		f.SetMetric(0, []float64{math.NaN(), 0, 0, 2})
	})

	assert.Equal(t, before, f.At(0))
	assert.Equal(t, int64(1), f.NonFinite())
}

func TestApplyMaxAspectRatioClampsSpread(t *testing.T) {
	f := field.New(tensor.D2, 1)
	f.SetMetric(0, []float64{1, 0, 0, 100})
	f.ApplyMaxAspectRatio(10)
	raw := f.At(0)
	assert.InDeltaSlice(t, []float64{10, 0, 0, 100}, raw, 1e-6)
}

func TestApplyMaxAspectRatioConcurrentAcrossVertices(t *testing.T) {
	const n = 500
	f := field.New(tensor.D2, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			f.SetMetric(i, []float64{1, 0, 0, float64(i + 1)})
		}(i)
	}
	wg.Wait()

	f.ApplyMaxAspectRatio(10)

	for i := 0; i < n; i++ {
		raw := f.At(i)
		lambdaMin := raw[0]
		lambdaMax := raw[3]
		if lambdaMin > lambdaMax {
			lambdaMin, lambdaMax = lambdaMax, lambdaMin
		}
		if lambdaMin == 0 {
			continue
		}
		assert.LessOrEqual(t, lambdaMax/lambdaMin, 10+1e-9)
	}
}

func TestUpdateMeshRemapsAndInterpolates(t *testing.T) {
	f := field.New(tensor.D2, 3)
	f.SetMetric(0, []float64{1, 0, 0, 1})
	f.SetMetric(1, []float64{0, 0, 0, 0})
	f.SetMetric(2, []float64{3, 0, 0, 3})

	// vertex 1 deleted, vertex 2 renumbered to slot 1, one new vertex
	// created at slot 2 from the midpoint of (old 0, old 2).
	remap := field.Remap{0, -1, 1}
	created := []field.NewVertex{{NewVID: 2, ParentA: 0, ParentB: 2}}
	f.UpdateMesh(3, remap, created)

	assert.Equal(t, []float64{1, 0, 0, 1}, f.At(0))
	assert.Equal(t, []float64{3, 0, 0, 3}, f.At(1))
	assert.InDeltaSlice(t, []float64{2, 0, 0, 2}, f.At(2), 1e-9)
}

func TestNonFiniteCounterUnchangedForZeroMetrics(t *testing.T) {
	f := field.New(tensor.D2, 1)
	before := f.NonFinite()
	f.ApplyMaxAspectRatio(10)
	assert.Equal(t, before, f.NonFinite())
}
