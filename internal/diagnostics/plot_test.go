package diagnostics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anisocore/metricadapt/internal/adapt"
	"github.com/anisocore/metricadapt/internal/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotConvergenceWritesSVG(t *testing.T) {
	history := []adapt.Sample{
		{Outer: 0, Inner: 0, LMax: 2.0, QMin: 0.1},
		{Outer: 0, Inner: 1, LMax: 1.6, QMin: 0.2},
		{Outer: 1, Inner: 0, LMax: 1.42, QMin: 0.45},
	}

	path := filepath.Join(t.TempDir(), "convergence.svg")
	require.NoError(t, diagnostics.PlotConvergence(history, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotConvergenceEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.svg")
	assert.NoError(t, diagnostics.PlotConvergence(nil, path))
}
