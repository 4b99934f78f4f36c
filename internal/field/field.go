// Package field implements MetricField: a dense, per-vertex array of SPD
// metric tensors with an aspect-ratio clamp and a remap-driven resize that
// tracks mesh renumbering without holding a back-pointer to the mesh.
package field

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/anisocore/metricadapt/internal/tensor"
)

// Field owns one MetricTensor per vertex id, all sharing the same dimension.
type Field struct {
	dim       tensor.Dim
	tensors   []*tensor.MetricTensor
	nonFinite atomic.Int64
}

// New returns a Field sized for n vertices of the given dimension. Every
// slot starts as an empty (zero) MetricTensor.
func New(dim tensor.Dim, n int) *Field {
	f := &Field{
		dim:     dim,
		tensors: make([]*tensor.MetricTensor, n),
	}
	for i := range f.tensors {
		f.tensors[i] = tensor.NewMetricTensor()
	}
	return f
}

// Len reports the number of vertex slots.
func (f *Field) Len() int { return len(f.tensors) }

// Dim reports the field's fixed tensor dimension.
func (f *Field) Dim() tensor.Dim { return f.dim }

// NonFinite returns the running count of per-vertex updates silently
// skipped because they produced a non-finite result.
func (f *Field) NonFinite() int64 { return f.nonFinite.Load() }

// At returns a copy of vertex vid's current tensor, row-major.
func (f *Field) At(vid int) []float64 { return f.tensors[vid].Get() }

// SetMetric writes raw into vertex vid, projecting it onto the SPD cone.
// A shape mismatch is fatal: the caller passed a raw buffer of the wrong
// dimension for this field and the field panics rather than silently
// truncating or zero-padding it. A non-finite raw tensor is local recovery:
// the slot is left untouched and the attempt is counted in NonFinite.
func (f *Field) SetMetric(vid int, raw []float64) {
	if err := f.tensors[vid].Set(f.dim, raw); err != nil {
		if errors.Is(err, tensor.ErrShapeMismatch) {
			panic(err)
		}
		f.nonFinite.Add(1)
		return
	}
}

// ApplyMaxAspectRatio bounds every vertex's eigenvalue spread so that
// lambda_max/lambda_min <= R, parallelised across GOMAXPROCS goroutines
// over contiguous vertex-id chunks (independent per-vertex work, so chunk
// boundaries never need synchronisation beyond the final WaitGroup.Wait).
func (f *Field) ApplyMaxAspectRatio(r float64) {
	f.parallelRange(func(vid int) {
		if err := clampAspectRatio(f.tensors[vid], r); err != nil {
			f.nonFinite.Add(1)
		}
	})
}

// clampAspectRatio raises every eigenvalue below lambda_max/R up to that
// floor, then recomposes.
func clampAspectRatio(m *tensor.MetricTensor, r float64) error {
	if m.IsZero() {
		return nil
	}
	values, vectors, err := m.EigenDecomp()
	if err != nil {
		return err
	}
	lambdaMax := values[0]
	for _, l := range values[1:] {
		if l > lambdaMax {
			lambdaMax = l
		}
	}
	floor := lambdaMax / r
	for i, l := range values {
		if l < floor {
			values[i] = floor
		}
	}
	return m.EigenUndecomp(values, vectors)
}

// parallelRange runs body(vid) for every vertex id, split into contiguous
// chunks across runtime.GOMAXPROCS(0) goroutines.
func (f *Field) parallelRange(body func(vid int)) {
	n := len(f.tensors)
	if n == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for vid := start; vid < end; vid++ {
				body(vid)
			}
		}(start, end)
	}
	wg.Wait()
}

// Remap is a mesh-emitted renumbering table: Remap[oldVID] is the new
// vertex id, or -1 if the vertex was deleted.
type Remap []int

// NewVertex describes a vertex created by refinement, whose metric is
// interpolated from its parent edge's midpoint.
type NewVertex struct {
	NewVID    int
	ParentA   int // old vertex id of one edge endpoint
	ParentB   int // old vertex id of the other edge endpoint
}

// UpdateMesh reconciles the field with a post-structural-change mesh: it
// consumes remap (old_vid -> new_vid) to relocate surviving entries and
// created to interpolate new vertices from their parent edge's midpoint
// metric, in tensor space. The field never holds a pointer back to the
// mesh; this call is the only channel by which mesh renumbering reaches it.
func (f *Field) UpdateMesh(newCount int, remap Remap, created []NewVertex) {
	next := make([]*tensor.MetricTensor, newCount)
	for newVID := range next {
		next[newVID] = tensor.NewMetricTensor()
	}
	for oldVID, newVID := range remap {
		if newVID < 0 {
			continue
		}
		raw := f.tensors[oldVID].Get()
		if raw != nil {
			if err := next[newVID].Set(f.dim, raw); err != nil {
				panic(err)
			}
		}
	}
	for _, nv := range created {
		a := f.tensors[nv.ParentA].Get()
		b := f.tensors[nv.ParentB].Get()
		mid, ok := midpoint(a, b)
		if !ok {
			continue
		}
		if err := next[nv.NewVID].Set(f.dim, mid); err != nil {
			panic(err)
		}
	}
	f.tensors = next
}

func midpoint(a, b []float64) ([]float64, bool) {
	if a == nil || b == nil || len(a) != len(b) {
		return nil, false
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = 0.5 * (a[i] + b[i])
	}
	return out, true
}
