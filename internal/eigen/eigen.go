// Package eigen implements closed-form symmetric eigendecomposition and
// recomposition for the 2x2 and 3x3 matrices that back the metric tensor
// core. It mirrors the structure of gonudg's JacobiGQ quadrature solver
// (element/library/gonudg/jacobi_quadrature.go in the DGKernel package this
// module descends from): build the symmetric operator, factorize it, and
// read back eigenvalues/eigenvectors through gonum/mat when the closed form
// is not trustworthy.
package eigen

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNonFinite is returned when a decomposition is attempted on a matrix
// containing NaN or Inf entries.
var ErrNonFinite = errors.New("eigen: non-finite input")

// Result2 holds the eigenvalues (stored as |lambda_i|, per the
// signed-absolute convention) and orthonormal eigenvectors of a 2x2
// symmetric matrix. Vectors is indexed [row][col]: column i is the
// eigenvector for Values[i].
type Result2 struct {
	Values  [2]float64
	Vectors [2][2]float64
}

// Result3 is the 3x3 analogue of Result2.
type Result3 struct {
	Values  [3]float64
	Vectors [3][3]float64
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Frobenius returns the Frobenius norm of a dense row-major d*d matrix.
func Frobenius(m []float64) float64 {
	return floats.Norm(m, 2)
}

// Decompose2 decomposes the symmetric matrix [[a00,a01],[a01,a11]].
func Decompose2(a00, a01, a11 float64) (Result2, error) {
	if !finite(a00, a01, a11) {
		return Result2{}, ErrNonFinite
	}
	if a00 == 0 && a01 == 0 && a11 == 0 {
		return Result2{}, nil
	}

	tr := a00 + a11
	det := a00*a11 - a01*a01
	disc := tr*tr/4 - det
	if disc < 0 {
		disc = 0 // guards against rounding error on nearly-repeated eigenvalues
	}
	sq := math.Sqrt(disc)
	mu1 := tr/2 + sq
	mu2 := tr/2 - sq

	v1 := eigvec2(a00, a01, a11, mu1)
	// The second eigenvector of a symmetric 2x2 is orthogonal to the first;
	// taking the perpendicular keeps V orthonormal even when mu1 == mu2.
	v2 := [2]float64{-v1[1], v1[0]}

	var r Result2
	r.Values = [2]float64{math.Abs(mu1), math.Abs(mu2)}
	r.Vectors = [2][2]float64{
		{v1[0], v2[0]},
		{v1[1], v2[1]},
	}
	if !finite(r.Values[0], r.Values[1], r.Vectors[0][0], r.Vectors[0][1], r.Vectors[1][0], r.Vectors[1][1]) {
		return Result2{}, ErrNonFinite
	}
	return r, nil
}

func eigvec2(a00, a01, a11, mu float64) [2]float64 {
	if a01 == 0 {
		// Diagonal matrix: pick the basis vector matching which diagonal
		// entry equals this eigenvalue.
		if math.Abs(mu-a00) <= math.Abs(mu-a11) {
			return [2]float64{1, 0}
		}
		return [2]float64{0, 1}
	}
	v := [2]float64{a01, mu - a00}
	n := math.Hypot(v[0], v[1])
	return [2]float64{v[0] / n, v[1] / n}
}

// Recompose2 builds T = V * diag(|lambda|) * V^T, clamping negative
// eigenvalues to their absolute value.
func Recompose2(lambda [2]float64, v [2][2]float64) (a00, a01, a11 float64) {
	l0, l1 := math.Abs(lambda[0]), math.Abs(lambda[1])
	a00 = l0*v[0][0]*v[0][0] + l1*v[0][1]*v[0][1]
	a01 = l0*v[0][0]*v[1][0] + l1*v[0][1]*v[1][1]
	a11 = l0*v[1][0]*v[1][0] + l1*v[1][1]*v[1][1]
	return
}

// Decompose3 decomposes the symmetric matrix given its upper triangle in
// row-major order: a00 a01 a02 / a11 a12 / a22.
func Decompose3(a00, a01, a02, a11, a12, a22 float64) (Result3, error) {
	if !finite(a00, a01, a02, a11, a12, a22) {
		return Result3{}, ErrNonFinite
	}
	if a00 == 0 && a01 == 0 && a02 == 0 && a11 == 0 && a12 == 0 && a22 == 0 {
		return Result3{}, nil
	}

	if a01 == 0 && a02 == 0 && a12 == 0 {
		// Already diagonal: no closed-form ambiguity possible.
		return decompose3Diagonal(a00, a11, a22)
	}

	res, degenerate := decompose3Cardano(a00, a01, a02, a11, a12, a22)
	if degenerate {
		return decompose3Fallback(a00, a01, a02, a11, a12, a22)
	}
	if !finite(res.Values[0], res.Values[1], res.Values[2]) {
		return Result3{}, ErrNonFinite
	}
	return res, nil
}

func decompose3Diagonal(a00, a11, a22 float64) (Result3, error) {
	vals := [3]float64{a00, a11, a22}
	var r Result3
	for i := range vals {
		r.Values[i] = math.Abs(vals[i])
		r.Vectors[i][i] = 1
	}
	return r, nil
}

// decompose3Cardano implements the closed-form trigonometric solution for
// the eigenvalues of a real symmetric 3x3 matrix (Kopp, "Efficient
// numerical diagonalization of hermitian 3x3 matrices"), followed by a
// cross-product null-space solve for the eigenvectors. It reports
// degenerate=true when the discriminant is ambiguous (near-repeated
// eigenvalues, within 4*ulp*||T||_F of collapsing) or when the cross-product
// construction cannot produce a well-defined eigenvector, signalling that
// the caller should fall back to a general solver.
func decompose3Cardano(a00, a01, a02, a11, a12, a22 float64) (Result3, bool) {
	const machineEpsilon = 2.220446049250313e-16
	norm := Frobenius([]float64{a00, a01, a02, a01, a11, a12, a02, a12, a22})
	ulpTol := 4 * machineEpsilon * norm
	if ulpTol == 0 {
		ulpTol = 1e-12
	}

	q := (a00 + a11 + a22) / 3
	b00, b11, b22 := a00-q, a11-q, a22-q
	p2 := b00*b00 + b11*b11 + b22*b22 + 2*(a01*a01+a02*a02+a12*a12)
	p := math.Sqrt(p2 / 6)
	if p < ulpTol {
		// Near-isotropic: all eigenvalues close to q.
		res, _ := decompose3Diagonal(q, q, q)
		return res, false
	}

	// det(B) where B = (A - qI)/p
	invP := 1 / p
	b00, b01, b02 := b00*invP, a01*invP, a02*invP
	b11, b12 := b11*invP, a12*invP
	b22 = b22 * invP
	detB := b00*(b11*b22-b12*b12) - b01*(b01*b22-b12*b02) + b02*(b01*b12-b11*b02)

	r := detB / 2
	if r < -1 {
		r = -1
	} else if r > 1 {
		r = 1
	}

	phi := math.Acos(r) / 3
	mu1 := q + 2*p*math.Cos(phi)
	mu3 := q + 2*p*math.Cos(phi+2*math.Pi/3)
	mu2 := 3*q - mu1 - mu3

	if math.Min(math.Abs(mu1-mu2), math.Abs(mu2-mu3)) < ulpTol {
		return Result3{}, true
	}

	v1, ok1 := eigvec3(a00, a01, a02, a11, a12, a22, mu1)
	v2, ok2 := eigvec3(a00, a01, a02, a11, a12, a22, mu2)
	v3, ok3 := eigvec3(a00, a01, a02, a11, a12, a22, mu3)
	if !ok1 || !ok2 || !ok3 {
		return Result3{}, true
	}

	var res Result3
	res.Values = [3]float64{math.Abs(mu1), math.Abs(mu2), math.Abs(mu3)}
	res.Vectors = [3][3]float64{
		{v1[0], v2[0], v3[0]},
		{v1[1], v2[1], v3[1]},
		{v1[2], v2[2], v3[2]},
	}
	return res, false
}

// eigvec3 solves (A-muI)v=0 via the cross product of two rows of (A-muI),
// choosing the pair with the largest cross-product magnitude for numerical
// stability. Returns ok=false if no pair yields a well-conditioned normal.
func eigvec3(a00, a01, a02, a11, a12, a22, mu float64) ([3]float64, bool) {
	row0 := [3]float64{a00 - mu, a01, a02}
	row1 := [3]float64{a01, a11 - mu, a12}
	row2 := [3]float64{a02, a12, a22 - mu}

	best := [3]float64{}
	bestNorm := -1.0
	for _, pair := range [][2][3]float64{{row0, row1}, {row0, row2}, {row1, row2}} {
		c := cross(pair[0], pair[1])
		n := math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
		if n > bestNorm {
			bestNorm = n
			best = c
		}
	}
	if bestNorm < 1e-9 {
		return [3]float64{}, false
	}
	return [3]float64{best[0] / bestNorm, best[1] / bestNorm, best[2] / bestNorm}, true
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// decompose3Fallback delegates to gonum's general dense symmetric
// eigensolver, used when the analytic path reports an ambiguous
// discriminant.
func decompose3Fallback(a00, a01, a02, a11, a12, a22 float64) (Result3, error) {
	sym := mat.NewSymDense(3, []float64{
		a00, a01, a02,
		a01, a11, a12,
		a02, a12, a22,
	})
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return Result3{}, ErrNonFinite
	}
	var values [3]float64
	eig.Values(values[:])

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	var r Result3
	for i := 0; i < 3; i++ {
		r.Values[i] = math.Abs(values[i])
		for j := 0; j < 3; j++ {
			r.Vectors[j][i] = vectors.At(j, i)
		}
	}
	if !finite(r.Values[0], r.Values[1], r.Values[2]) {
		return Result3{}, ErrNonFinite
	}
	return r, nil
}

// Recompose3 builds T = V * diag(|lambda|) * V^T.
func Recompose3(lambda [3]float64, v [3][3]float64) (a00, a01, a02, a11, a12, a22 float64) {
	l := [3]float64{math.Abs(lambda[0]), math.Abs(lambda[1]), math.Abs(lambda[2])}
	entry := func(i, j int) float64 {
		sum := 0.0
		for k := 0; k < 3; k++ {
			sum += l[k] * v[i][k] * v[j][k]
		}
		return sum
	}
	return entry(0, 0), entry(0, 1), entry(0, 2), entry(1, 1), entry(1, 2), entry(2, 2)
}
