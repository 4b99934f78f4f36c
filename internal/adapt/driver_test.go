package adapt_test

import (
	"errors"
	"testing"

	"github.com/anisocore/metricadapt/internal/adapt"
	"github.com/anisocore/metricadapt/internal/config"
	"github.com/anisocore/metricadapt/internal/field"
	"github.com/anisocore/metricadapt/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMesh is a minimal geomops.Mesh/geomops.GeomOps double: each
// Refine shrinks lMax (down to a floor of 1) and each OptimisationLinf bumps
// qMin, so the driver's loop structure can be exercised without a real
// mesh kernel.
type scriptedMesh struct {
	lMax      float64
	qMin      float64
	shrink    float64
	qStep     float64
	coarsen   int
	swap      int
	refine    int
	laplacian int
	optim     int
	failAfter int // Coarsen call from which on Coarsen reports an error; 0 = never
	calls     int
}

func (m *scriptedMesh) MaximalEdgeLength() float64 { return m.lMax }
func (m *scriptedMesh) QMin() float64              { return m.qMin }

func (m *scriptedMesh) Defragment() (int, field.Remap, []field.NewVertex) {
	return 0, field.Remap{}, nil
}

func (m *scriptedMesh) Coarsen(lLow, lRef float64) error {
	m.calls++
	if m.failAfter > 0 && m.calls >= m.failAfter {
		return errors.New("scripted divergence")
	}
	m.coarsen++
	return nil
}

func (m *scriptedMesh) Swap(qThreshold float64) error {
	m.swap++
	return nil
}

func (m *scriptedMesh) Refine(lRef float64) error {
	m.refine++
	m.lMax -= m.shrink
	if m.lMax < 1 {
		m.lMax = 1
	}
	return nil
}

func (m *scriptedMesh) SmartLaplacian(iters int, omega float64) error {
	m.laplacian++
	return nil
}

func (m *scriptedMesh) OptimisationLinf(iters int) error {
	m.optim++
	m.qMin += m.qStep
	return nil
}

func TestRunTerminatesOnQualityGate(t *testing.T) {
	cfg := config.Default()
	mesh := &scriptedMesh{lMax: cfg.LUp, qMin: 0.1, shrink: 0.05, qStep: 0.2}
	f := field.New(tensor.D2, 1)

	res := adapt.Run(cfg, mesh, mesh, f)

	assert.Equal(t, adapt.TerminatedQualityGate, res.Reason)
	assert.Greater(t, mesh.qMin, cfg.QStar)
	assert.NotEmpty(t, res.History)
	assert.NotEqual(t, res.CycleID.String(), "")
}

func TestRunExhaustsOuterIterationsWithoutQualityGate(t *testing.T) {
	cfg := config.Default()
	mesh := &scriptedMesh{lMax: cfg.LUp, qMin: 0.0, shrink: 0.05, qStep: 0.0}
	f := field.New(tensor.D2, 1)

	res := adapt.Run(cfg, mesh, mesh, f)

	assert.Equal(t, adapt.TerminatedOuterExhausted, res.Reason)
	assert.LessOrEqual(t, len(res.History), cfg.IMax*cfg.KMax)
}

func TestRunReportsDivergenceOnOperatorError(t *testing.T) {
	cfg := config.Default()
	mesh := &scriptedMesh{lMax: 5, qMin: 0.0, shrink: 0.01, qStep: 0.0, failAfter: 1}
	f := field.New(tensor.D2, 1)

	res := adapt.Run(cfg, mesh, mesh, f)

	assert.Equal(t, adapt.TerminatedDivergence, res.Reason)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, adapt.ErrNumericDivergence))
}

func TestRunBoundsInnerIterationsByConvergence(t *testing.T) {
	cfg := config.Default()
	// lMax starts already within eps_L of L_up: the inner loop should
	// break after its first iteration every outer pass.
	mesh := &scriptedMesh{lMax: cfg.LUp, qMin: 0.0, shrink: 0, qStep: 0.0}
	f := field.New(tensor.D2, 1)

	res := adapt.Run(cfg, mesh, mesh, f)

	assert.LessOrEqual(t, len(res.History), cfg.IMax)
}
