// Package geomops declares the external collaborator surface the adapt
// driver schedules against: the mesh's own geometric operators and its
// query/maintenance methods. Both are observed only through these
// interfaces — concrete coarsening, refinement, swapping, and smoothing
// kernels, along with the mesh topology itself, live outside this module.
package geomops

import "github.com/anisocore/metricadapt/internal/field"

// GeomOps is the set of geometric operators the driver fires in a fixed
// order. Every method mutates the bound mesh in place.
type GeomOps interface {
	// Coarsen removes edges shorter than lLow in metric, never creating an
	// edge longer than lRef.
	Coarsen(lLow, lRef float64) error

	// Swap flips interior faces/edges whose minimum adjacent element
	// quality is below qThreshold if the flip strictly improves it.
	Swap(qThreshold float64) error

	// Refine splits edges longer than lRef. New vertex metrics are pulled
	// from the bound MetricField via Mesh.UpdateMesh after the batch.
	Refine(lRef float64) error

	// SmartLaplacian relocates vertices to improve smoothness while never
	// decreasing the minimum element quality, for the given iteration
	// count and relaxation factor.
	SmartLaplacian(iters int, omega float64) error

	// OptimisationLinf relocates vertices to maximise the worst element
	// quality, for the given iteration count.
	OptimisationLinf(iters int) error
}

// Mesh is the query/maintenance surface the driver reads between
// operator calls.
type Mesh interface {
	// MaximalEdgeLength returns the longest edge length under the bound
	// metric field.
	MaximalEdgeLength() float64

	// QMin returns the minimum element quality in the current mesh.
	QMin() float64

	// Defragment compacts dead vertex/element slots left behind by the
	// structural operators and emits the remap the bound MetricField
	// consumes via field.UpdateMesh.
	Defragment() (newVertexCount int, remap field.Remap, created []field.NewVertex)
}
