// Package adapt implements the fixed-point adaptation loop: a single
// "cycle" interleaves coarsen/swap/refine under a shrinking length target,
// defragments, smooths, and exits early once the mesh clears a quality
// gate.
package adapt

import (
	"errors"
	"fmt"
	"math"

	"github.com/anisocore/metricadapt/internal/config"
	"github.com/anisocore/metricadapt/internal/field"
	"github.com/anisocore/metricadapt/internal/geomops"
	"github.com/google/uuid"
)

// ErrNoProgress signals that the inner loop should stop: L_max either
// reached the length target or made no measurable progress for an
// iteration. It only breaks the inner loop; it is never returned from Run.
var ErrNoProgress = errors.New("adapt: no progress")

// ErrNumericDivergence signals a non-finite metric surfaced during an
// inner operator call; it aborts the current cycle and is returned from
// Run.
var ErrNumericDivergence = errors.New("adapt: numeric divergence")

// TerminationReason explains why Run stopped.
type TerminationReason int

const (
	// TerminatedQualityGate means mesh.QMin() cleared the target before
	// I_max outer iterations ran out.
	TerminatedQualityGate TerminationReason = iota
	// TerminatedOuterExhausted means all I_max outer iterations ran.
	TerminatedOuterExhausted
	// TerminatedDivergence means an operator reported a non-finite metric.
	TerminatedDivergence
)

func (r TerminationReason) String() string {
	switch r {
	case TerminatedQualityGate:
		return "quality gate"
	case TerminatedOuterExhausted:
		return "outer iterations exhausted"
	case TerminatedDivergence:
		return "numeric divergence"
	default:
		return "unknown"
	}
}

// Sample is one inner-iteration's observed state.
type Sample struct {
	Outer int
	Inner int
	LMax  float64
	QMin  float64
}

// Result is returned by Run: the termination reason, the sample history,
// and a correlation id for this cycle (useful when a caller runs many
// cycles and wants to line up logs or plots against one of them).
type Result struct {
	CycleID   uuid.UUID
	Reason    TerminationReason
	History   []Sample
	Err       error
}

// Run executes one adaptation cycle against mesh/ops, bound to the given
// MetricField, following the schedule: for each outer iteration, run the
// inner coarsen->swap->refine loop until L_max converges or K_max is
// exhausted, defragment, smooth, then check the quality gate.
func Run(cfg config.Config, mesh geomops.Mesh, ops geomops.GeomOps, f *field.Field) Result {
	res := Result{CycleID: uuid.New()}

	const alpha = math.Sqrt2 / 2
	lMax := mesh.MaximalEdgeLength()

	for outer := 0; outer < cfg.IMax; outer++ {
		prevLMax := math.Inf(1)
		for inner := 0; inner < cfg.KMax; inner++ {
			lRef := math.Max(alpha*lMax, cfg.LUp)

			if err := ops.Coarsen(cfg.LLow, lRef); err != nil {
				return divergent(res, err)
			}
			if err := ops.Swap(cfg.QSwap); err != nil {
				return divergent(res, err)
			}
			if err := ops.Refine(lRef); err != nil {
				return divergent(res, err)
			}

			lMax = mesh.MaximalEdgeLength()
			res.History = append(res.History, Sample{
				Outer: outer,
				Inner: inner,
				LMax:  lMax,
				QMin:  mesh.QMin(),
			})

			if innerErr := checkProgress(lMax, prevLMax, cfg); innerErr != nil {
				break
			}
			prevLMax = lMax
		}

		newCount, remap, created := mesh.Defragment()
		f.UpdateMesh(newCount, remap, created)

		if outer > 0 {
			if err := ops.SmartLaplacian(outer*10, 1.0); err != nil {
				return divergent(res, err)
			}
		}
		if err := ops.OptimisationLinf(10); err != nil {
			return divergent(res, err)
		}

		if mesh.QMin() > cfg.QStar {
			res.Reason = TerminatedQualityGate
			return res
		}
	}

	res.Reason = TerminatedOuterExhausted
	return res
}

// checkProgress implements the inner loop's two break conditions: the
// length target converged, or L_max stopped moving between consecutive
// inner iterations. Both return ErrNoProgress, which callers treat as a
// non-fatal signal to stop the inner loop early.
func checkProgress(lMax, prevLMax float64, cfg config.Config) error {
	if lMax-cfg.LUp < cfg.EpsL {
		return ErrNoProgress
	}
	if math.Abs(lMax-prevLMax) < cfg.EpsL {
		return ErrNoProgress
	}
	return nil
}

func divergent(res Result, err error) Result {
	res.Reason = TerminatedDivergence
	res.Err = fmt.Errorf("%w: %v", ErrNumericDivergence, err)
	return res
}
