package tensor

import (
	"math"

	"github.com/anisocore/metricadapt/internal/eigen"
	"gonum.org/v1/gonum/mat"
)

// This file holds the dimension-generic matrix algebra shared by tensor2
// and tensor3: the eigendecomposition bridge to internal/eigen and the
// constrain (metric intersection) algorithm. Keeping one implementation
// here, driven by dim instead of duplicating the gonum/mat plumbing per
// concrete type, trades a small amount of per-vertex dispatch for a
// single, carefully verified constrain implementation (see DESIGN.md).

func isZeroRaw(raw []float64) bool {
	for _, v := range raw {
		if v != 0 {
			return false
		}
	}
	return true
}

func hasNonFinite(raw []float64) bool {
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func mirrorUpperToLower(dim int, raw []float64) {
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			raw[j*dim+i] = raw[i*dim+j]
		}
	}
}

func denseToRaw(m *mat.Dense, dim int) []float64 {
	raw := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			raw[i*dim+j] = m.At(i, j)
		}
	}
	return raw
}

// decomposeRaw delegates to internal/eigen for a symmetric dim x dim matrix
// given in row-major form, returning the eigenvalues (already absolute
// valued) and a dense matrix whose columns are the corresponding
// orthonormal eigenvectors.
func decomposeRaw(dim int, raw []float64) (lambda []float64, v *mat.Dense, err error) {
	switch dim {
	case 2:
		r, e := eigen.Decompose2(raw[0], raw[1], raw[3])
		if e != nil {
			return nil, nil, e
		}
		lambda = []float64{r.Values[0], r.Values[1]}
		v = mat.NewDense(2, 2, []float64{
			r.Vectors[0][0], r.Vectors[0][1],
			r.Vectors[1][0], r.Vectors[1][1],
		})
	case 3:
		r, e := eigen.Decompose3(raw[0], raw[1], raw[2], raw[4], raw[5], raw[8])
		if e != nil {
			return nil, nil, e
		}
		lambda = []float64{r.Values[0], r.Values[1], r.Values[2]}
		v = mat.NewDense(3, 3, []float64{
			r.Vectors[0][0], r.Vectors[0][1], r.Vectors[0][2],
			r.Vectors[1][0], r.Vectors[1][1], r.Vectors[1][2],
			r.Vectors[2][0], r.Vectors[2][1], r.Vectors[2][2],
		})
	default:
		return nil, nil, ErrShapeMismatch
	}
	return lambda, v, nil
}

// recomposeRaw builds T = V * diag(|lambda|) * V^T as a row-major raw slice.
func recomposeRaw(dim int, lambda []float64, v *mat.Dense) ([]float64, error) {
	abs := make([]float64, dim)
	for i, l := range lambda {
		abs[i] = math.Abs(l)
	}
	d := mat.NewDiagDense(dim, abs)
	var tmp, out mat.Dense
	tmp.Mul(v, d)
	out.Mul(&tmp, v.T())
	raw := denseToRaw(&out, dim)
	if hasNonFinite(raw) {
		return nil, ErrNonFinite
	}
	return raw, nil
}

// positiveDefiniteRaw projects a symmetric matrix onto the SPD cone by
// taking the absolute value of its eigenvalues. A zero input is a fixed
// point.
func positiveDefiniteRaw(dim int, raw []float64) ([]float64, error) {
	if isZeroRaw(raw) {
		return raw, nil
	}
	lambda, v, err := decomposeRaw(dim, raw)
	if err != nil {
		return nil, err
	}
	return recomposeRaw(dim, lambda, v)
}

// isotropiseRaw collapses every eigenvalue to the smallest one, in both 2D
// and 3D.
func isotropiseRaw(dim int, raw []float64) ([]float64, error) {
	if isZeroRaw(raw) {
		return raw, nil
	}
	lambda, v, err := decomposeRaw(dim, raw)
	if err != nil {
		return nil, err
	}
	min := lambda[0]
	for _, l := range lambda[1:] {
		if l < min {
			min = l
		}
	}
	for i := range lambda {
		lambda[i] = min
	}
	return recomposeRaw(dim, lambda, v)
}

// aspectRatioRaw returns lambda_min/lambda_max for a non-zero tensor. A
// zero tensor has no well-defined aspect ratio (ok=false); callers must
// special-case it, since zero is a no-op source everywhere else too.
func aspectRatioRaw(dim int, raw []float64) (ratio float64, ok bool) {
	if isZeroRaw(raw) {
		return 0, false
	}
	lambda, _, err := decomposeRaw(dim, raw)
	if err != nil {
		return 0, false
	}
	min, max := lambda[0], lambda[0]
	for _, l := range lambda[1:] {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	if max == 0 {
		return 0, false
	}
	return min / max, true
}

func lengthStatsRaw(dim int, raw []float64) (average, max, min float64) {
	lambda, _, err := decomposeRaw(dim, raw)
	if err != nil {
		return math.NaN(), math.NaN(), math.NaN()
	}
	if len(lambda) == 0 {
		// zero tensor: lengths are undefined (division by zero eigenvalues)
		return math.NaN(), math.Inf(1), math.Inf(1)
	}
	sum := 0.0
	lmin, lmax := lambda[0], lambda[0]
	anyZero := false
	for _, l := range lambda {
		sum += l
		if l == 0 {
			anyZero = true
		}
		if l < lmin {
			lmin = l
		}
		if l > lmax {
			lmax = l
		}
	}
	if anyZero {
		average = math.NaN()
	} else {
		average = math.Sqrt(float64(dim) / sum)
	}
	max = math.Sqrt(1 / lmin) // smallest eigenvalue -> longest edge
	min = math.Sqrt(1 / lmax) // largest eigenvalue -> shortest edge
	return average, max, min
}

const aspectTieEpsilon = 1e-12

// constrainRaw implements the metric-intersection algorithm. selfRaw and
// otherRaw are row-major dim x dim. It returns the unchanged selfRaw (with
// changed=false, no error) when the operation is defined to be a no-op,
// and an error only when an output entry is non-finite.
func constrainRaw(dim int, selfRaw, otherRaw []float64, preserveShort bool) (result []float64, changed bool, err error) {
	if hasNonFinite(otherRaw) || isZeroRaw(otherRaw) || isZeroRaw(selfRaw) {
		return selfRaw, false, nil
	}

	aspectSelf, _ := aspectRatioRaw(dim, selfRaw)
	aspectOther, _ := aspectRatioRaw(dim, otherRaw)

	refRaw, inRaw := selfRaw, otherRaw
	if aspectOther > aspectSelf+aspectTieEpsilon {
		refRaw, inRaw = otherRaw, selfRaw
	}

	lambdaRef, vRef, err := decomposeRaw(dim, refRaw)
	if err != nil {
		return nil, false, err
	}

	sqrtLambda := make([]float64, dim)
	for i, l := range lambdaRef {
		sqrtLambda[i] = math.Sqrt(math.Abs(l))
		if sqrtLambda[i] == 0 {
			// M_ref is singular: its reference space is degenerate.
			return nil, false, ErrNonFinite
		}
	}

	// F = diag(sqrt(lambdaRef)) * V_ref^T
	sqrtDiag := mat.NewDiagDense(dim, sqrtLambda)
	var f mat.Dense
	f.Mul(sqrtDiag, vRef.T())

	var fInv mat.Dense
	if err := fInv.Inverse(&f); err != nil {
		return nil, false, ErrNonFinite
	}

	// M~ = F^-T * M_in * F^-1
	mIn := mat.NewDense(dim, dim, append([]float64(nil), inRaw...))
	var tmp, mTilde mat.Dense
	tmp.Mul(fInv.T(), mIn)
	mTilde.Mul(&tmp, &fInv)

	mu, w, err := decomposeRaw(dim, denseToRaw(&mTilde, dim))
	if err != nil {
		return nil, false, err
	}
	for i := range mu {
		if preserveShort {
			if mu[i] < 1 {
				mu[i] = 1
			}
		} else {
			if mu[i] > 1 {
				mu[i] = 1
			}
		}
	}

	// Mc = F^T * W * diag(mu) * W^T * F
	diagMu := mat.NewDiagDense(dim, mu)
	var wMu, wMuWt, rhs, mc mat.Dense
	wMu.Mul(w, diagMu)
	wMuWt.Mul(&wMu, w.T())
	rhs.Mul(&wMuWt, &f)
	mc.Mul(f.T(), &rhs)

	raw := denseToRaw(&mc, dim)
	if hasNonFinite(raw) {
		return nil, false, ErrNonFinite
	}
	mirrorUpperToLower(dim, raw)
	return raw, true, nil
}

// eigenUndecompRaw stores V * diag(|lambda|) * V^T, SPD by construction as
// long as V's columns are linearly independent.
func eigenUndecompRaw(dim int, lambda []float64, vectors *mat.Dense) ([]float64, error) {
	abs := make([]float64, dim)
	for i, l := range lambda {
		abs[i] = math.Abs(l)
	}
	d := mat.NewDiagDense(dim, abs)
	var tmp, out mat.Dense
	tmp.Mul(vectors, d)
	out.Mul(&tmp, vectors.T())
	raw := denseToRaw(&out, dim)
	if hasNonFinite(raw) {
		return nil, ErrNonFinite
	}
	mirrorUpperToLower(dim, raw)
	return raw, nil
}
