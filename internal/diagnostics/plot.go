// Package diagnostics renders an AdaptDriver Result's convergence history
// to SVG. It is the module's only optional feature; nothing in
// internal/adapt, internal/field, internal/tensor, or internal/eigen
// depends on it.
package diagnostics

import (
	"fmt"

	"github.com/anisocore/metricadapt/internal/adapt"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotConvergence renders history's L_max and q_min traces, one point per
// inner iteration, to an SVG file at path.
func PlotConvergence(history []adapt.Sample, path string) error {
	p := plot.New()
	p.Title.Text = "adaptation cycle convergence"
	p.X.Label.Text = "inner iteration"
	p.Y.Label.Text = "value"

	lMax := make(plotter.XYs, len(history))
	qMin := make(plotter.XYs, len(history))
	for i, s := range history {
		lMax[i].X = float64(i)
		lMax[i].Y = s.LMax
		qMin[i].X = float64(i)
		qMin[i].Y = s.QMin
	}

	lMaxLine, err := plotter.NewLine(lMax)
	if err != nil {
		return fmt.Errorf("diagnostics: build L_max line: %w", err)
	}
	qMinLine, err := plotter.NewLine(qMin)
	if err != nil {
		return fmt.Errorf("diagnostics: build q_min line: %w", err)
	}

	p.Add(lMaxLine, qMinLine)
	p.Legend.Add("L_max", lMaxLine)
	p.Legend.Add("q_min", qMinLine)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("diagnostics: save plot: %w", err)
	}
	return nil
}
