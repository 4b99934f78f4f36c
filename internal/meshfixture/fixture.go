// Package meshfixture provides a small in-memory dual-graph mesh, enough to
// exercise AdaptDriver and MetricField.UpdateMesh end to end in tests and in
// cmd/adaptdemo without reimplementing a production mesh kernel. It is test
// and demo scaffolding, never imported by internal/adapt, internal/field,
// internal/tensor, or internal/eigen.
package meshfixture

import (
	"math"
	"strconv"

	"github.com/anisocore/metricadapt/internal/field"
	"github.com/anisocore/metricadapt/internal/geomops"
	"github.com/james-bowman/sparse"
	"github.com/katalvlaran/lvlath/core"
	"gonum.org/v1/gonum/mat"
)

// pendingVertex records a vertex created by Refine since the last
// Defragment, in the pre-compaction id space.
type pendingVertex struct {
	vid, parentA, parentB int
}

// Fixture is a dual-graph mesh: vertices carry Euclidean coordinates, a
// lvlath core.Graph carries connectivity, and a bound MetricField supplies
// the lengths every operator measures against.
type Fixture struct {
	dim     int
	pos     [][]float64
	graph   *core.Graph
	field   *field.Field
	dead    map[int]bool
	pending []pendingVertex
	nextID  int
}

// NewGrid builds a (nx x ny) regular grid on the unit square, 4-connected,
// bound to field (which must already be sized for nx*ny vertices of
// dimension 2).
func NewGrid(nx, ny int, f *field.Field) *Fixture {
	fx := &Fixture{
		dim:   2,
		graph: core.NewGraph(core.WithWeighted()),
		field: f,
		dead:  make(map[int]bool),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := float64(i) / float64(nx-1)
			y := float64(j) / float64(ny-1)
			fx.addVertex([]float64{x, y})
		}
	}
	idx := func(i, j int) int { return j*nx + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if i+1 < nx {
				fx.addEdge(idx(i, j), idx(i+1, j))
			}
			if j+1 < ny {
				fx.addEdge(idx(i, j), idx(i, j+1))
			}
		}
	}
	return fx
}

func (fx *Fixture) addVertex(p []float64) int {
	id := fx.nextID
	fx.nextID++
	fx.pos = append(fx.pos, p)
	_ = fx.graph.AddVertex(strconv.Itoa(id))
	return id
}

func (fx *Fixture) addEdge(a, b int) {
	_, _ = fx.graph.AddEdge(strconv.Itoa(a), strconv.Itoa(b), 0)
}

func (fx *Fixture) removeEdge(a, b int) {
	nbrs, err := fx.graph.NeighborIDs(strconv.Itoa(a))
	if err != nil {
		return
	}
	bID := strconv.Itoa(b)
	for _, n := range nbrs {
		if n == bID {
			_ = fx.graph.RemoveEdge(edgeID(fx.graph, strconv.Itoa(a), bID))
			return
		}
	}
}

func edgeID(g *core.Graph, from, to string) string {
	for _, e := range g.Edges() {
		if (e.From == from && e.To == to) || (e.From == to && e.To == from) {
			return e.ID
		}
	}
	return ""
}

// metricLength computes sqrt(v^T Mbar v) for the edge (a,b) under the
// average of the two endpoints' current metric tensors.
func (fx *Fixture) metricLength(a, b int) float64 {
	ma := fx.field.At(a)
	mb := fx.field.At(b)
	d := fx.dim
	v := make([]float64, d)
	for k := 0; k < d; k++ {
		v[k] = fx.pos[b][k] - fx.pos[a][k]
	}
	mbar := make([]float64, d*d)
	for k := range mbar {
		mbar[k] = 0.5 * (ma[k] + mb[k])
	}
	sum := 0.0
	for r := 0; r < d; r++ {
		rowSum := 0.0
		for c := 0; c < d; c++ {
			rowSum += mbar[r*d+c] * v[c]
		}
		sum += v[r] * rowSum
	}
	if sum < 0 {
		return 0
	}
	return math.Sqrt(sum)
}

func (fx *Fixture) liveVertices() []int {
	live := make([]int, 0, len(fx.pos))
	for i := range fx.pos {
		if !fx.dead[i] {
			live = append(live, i)
		}
	}
	return live
}

// MaximalEdgeLength implements geomops.Mesh.
func (fx *Fixture) MaximalEdgeLength() float64 {
	max := 0.0
	for _, e := range fx.graph.Edges() {
		a, b := atoiPair(e.From, e.To)
		l := fx.metricLength(a, b)
		if l > max {
			max = l
		}
	}
	return max
}

// QMin implements geomops.Mesh: the minimum, over vertices with at least
// one incident edge, of the ratio between their shortest and longest
// incident edge length under the metric. 1.0 means every edge at that
// vertex is the same metric length; it degrades toward 0 as the star
// becomes stretched.
func (fx *Fixture) QMin() float64 {
	qMin := 1.0
	any := false
	for _, v := range fx.liveVertices() {
		nbrs, err := fx.graph.NeighborIDs(strconv.Itoa(v))
		if err != nil || len(nbrs) == 0 {
			continue
		}
		lo, hi := math.Inf(1), 0.0
		for _, nid := range nbrs {
			n, _ := strconv.Atoi(nid)
			l := fx.metricLength(v, n)
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
		if hi == 0 {
			continue
		}
		any = true
		q := lo / hi
		if q < qMin {
			qMin = q
		}
	}
	if !any {
		return 1.0
	}
	return qMin
}

// Defragment implements geomops.Mesh: compacts dead vertex slots and
// reports the remap table and any vertices created since the last call.
func (fx *Fixture) Defragment() (int, field.Remap, []field.NewVertex) {
	remap := make(field.Remap, len(fx.pos))
	for i := range remap {
		remap[i] = -1
	}
	live := fx.liveVertices()
	newPos := make([][]float64, len(live))
	newGraph := core.NewGraph(core.WithWeighted())
	for newIdx, oldIdx := range live {
		remap[oldIdx] = newIdx
		newPos[newIdx] = fx.pos[oldIdx]
		_ = newGraph.AddVertex(strconv.Itoa(newIdx))
	}
	for _, e := range fx.graph.Edges() {
		a, b := atoiPair(e.From, e.To)
		na, nb := remap[a], remap[b]
		if na < 0 || nb < 0 {
			continue
		}
		_, _ = newGraph.AddEdge(strconv.Itoa(na), strconv.Itoa(nb), 0)
	}

	created := make([]field.NewVertex, 0, len(fx.pending))
	for _, p := range fx.pending {
		if nv := remap[p.vid]; nv >= 0 {
			created = append(created, field.NewVertex{
				NewVID:  nv,
				ParentA: p.parentA,
				ParentB: p.parentB,
			})
		}
	}

	fx.pos = newPos
	fx.graph = newGraph
	fx.dead = make(map[int]bool)
	fx.pending = nil
	fx.nextID = len(newPos)

	return len(newPos), remap, created
}

// Coarsen implements geomops.GeomOps: collapses edges shorter than lLow by
// merging the higher-id endpoint into the lower-id one. A reconnecting
// edge from the survivor that would be longer than lRef is not created;
// the collapse still happens and that neighbour loses its link through
// the removed vertex.
func (fx *Fixture) Coarsen(lLow, lRef float64) error {
	for _, e := range fx.graph.Edges() {
		a, b := atoiPair(e.From, e.To)
		if fx.dead[a] || fx.dead[b] {
			continue
		}
		if fx.metricLength(a, b) >= lLow {
			continue
		}
		survivor, doomed := a, b
		if survivor > doomed {
			survivor, doomed = doomed, survivor
		}
		fx.collapse(survivor, doomed, lRef)
	}
	return nil
}

func (fx *Fixture) collapse(survivor, doomed int, lRef float64) {
	nbrs, err := fx.graph.NeighborIDs(strconv.Itoa(doomed))
	if err != nil {
		return
	}
	for _, nid := range nbrs {
		n, _ := strconv.Atoi(nid)
		if n == survivor || fx.dead[n] {
			continue
		}
		if fx.graph.HasEdge(strconv.Itoa(survivor), strconv.Itoa(n)) {
			continue
		}
		if fx.metricLength(survivor, n) > lRef {
			continue
		}
		fx.addEdge(survivor, n)
	}
	fx.removeVertexEdges(doomed)
	fx.dead[doomed] = true
}

func (fx *Fixture) removeVertexEdges(v int) {
	nbrs, err := fx.graph.NeighborIDs(strconv.Itoa(v))
	if err != nil {
		return
	}
	for _, nid := range nbrs {
		n, _ := strconv.Atoi(nid)
		fx.removeEdge(v, n)
	}
}

// Swap implements geomops.GeomOps. The fixture has no explicit elements to
// flip; swapping is a no-op here, matching a mesh whose dual graph already
// minimises the quality measure QMin reads.
func (fx *Fixture) Swap(qThreshold float64) error { return nil }

// Refine implements geomops.GeomOps: splits every edge longer than lRef by
// inserting a midpoint vertex, recording it as pending for the next
// Defragment to report to the bound MetricField.
func (fx *Fixture) Refine(lRef float64) error {
	for _, e := range fx.graph.Edges() {
		a, b := atoiPair(e.From, e.To)
		if fx.dead[a] || fx.dead[b] {
			continue
		}
		if fx.metricLength(a, b) <= lRef {
			continue
		}
		mid := make([]float64, fx.dim)
		for k := 0; k < fx.dim; k++ {
			mid[k] = 0.5 * (fx.pos[a][k] + fx.pos[b][k])
		}
		newID := fx.addVertex(mid)
		fx.removeEdge(a, b)
		fx.addEdge(a, newID)
		fx.addEdge(newID, b)
		fx.pending = append(fx.pending, pendingVertex{vid: newID, parentA: a, parentB: b})
	}
	return nil
}

// SmartLaplacian implements geomops.GeomOps: relocates each vertex toward
// the average of its neighbours' positions, blended by omega, using the
// CSR vertex-adjacency operator for the neighbour sum. A pass that would
// lower QMin is undone and ends the smoothing.
func (fx *Fixture) SmartLaplacian(iters int, omega float64) error {
	for it := 0; it < iters; it++ {
		before := fx.QMin()
		saved := make([][]float64, len(fx.pos))
		for i, p := range fx.pos {
			saved[i] = append([]float64(nil), p...)
		}
		fx.relax(omega)
		if fx.QMin() < before {
			fx.pos = saved
			break
		}
	}
	return nil
}

// OptimisationLinf implements geomops.GeomOps: a full-step (omega = 1)
// Laplacian relaxation of every live vertex, repeated iters times. It does
// not single out the worst-quality vertex and does not check QMin.
func (fx *Fixture) OptimisationLinf(iters int) error {
	for it := 0; it < iters; it++ {
		fx.relax(1.0)
	}
	return nil
}

func (fx *Fixture) relax(omega float64) {
	live := fx.liveVertices()
	if len(live) == 0 {
		return
	}
	n := len(fx.pos)
	dok := sparse.NewDOK(n, n)
	degree := make([]float64, n)
	for _, e := range fx.graph.Edges() {
		a, b := atoiPair(e.From, e.To)
		if fx.dead[a] || fx.dead[b] {
			continue
		}
		dok.Set(a, b, 1)
		dok.Set(b, a, 1)
		degree[a]++
		degree[b]++
	}
	adj := dok.ToCSR()

	for k := 0; k < fx.dim; k++ {
		coord := mat.NewDense(n, 1, nil)
		for _, v := range live {
			coord.Set(v, 0, fx.pos[v][k])
		}
		var sum mat.Dense
		sum.Mul(adj, coord)
		for _, v := range live {
			if degree[v] == 0 {
				continue
			}
			avg := sum.At(v, 0) / degree[v]
			fx.pos[v][k] = (1-omega)*fx.pos[v][k] + omega*avg
		}
	}
}

func atoiPair(a, b string) (int, int) {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return ai, bi
}

var _ geomops.Mesh = (*Fixture)(nil)
var _ geomops.GeomOps = (*Fixture)(nil)
