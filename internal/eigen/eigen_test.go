package eigen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompose2Identity(t *testing.T) {
	r, err := Decompose2(1, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, r.Values[0], 1e-12)
	assert.InDelta(t, 1, r.Values[1], 1e-12)
}

func TestDecompose2Zero(t *testing.T) {
	r, err := Decompose2(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Result2{}, r)
}

func TestDecompose2NonFinite(t *testing.T) {
	_, err := Decompose2(math.NaN(), 0, 1)
	require.ErrorIs(t, err, ErrNonFinite)
}

func TestDecompose2RoundTrip(t *testing.T) {
	cases := [][3]float64{
		{2, 1, 3},
		{5, 0, 5},
		{1, -4, 7},
		{10, 3.5, 1},
	}
	for _, c := range cases {
		r, err := Decompose2(c[0], c[1], c[2])
		require.NoError(t, err)

		// V^T V = I
		v := r.Vectors
		dot00 := v[0][0]*v[0][0] + v[1][0]*v[1][0]
		dot11 := v[0][1]*v[0][1] + v[1][1]*v[1][1]
		dot01 := v[0][0]*v[0][1] + v[1][0]*v[1][1]
		assert.InDelta(t, 1, dot00, 1e-9)
		assert.InDelta(t, 1, dot11, 1e-9)
		assert.InDelta(t, 0, dot01, 1e-9)

		a00, a01, a11 := Recompose2(r.Values, r.Vectors)
		norm := Frobenius([]float64{c[0], c[1], c[1], c[2]})
		tol := 8 * 2.220446049250313e-16 * math.Max(norm, 1)
		if c[0] >= 0 && c[2] >= 0 && c[0]*c[2]-c[1]*c[1] >= 0 {
			// Already SPD: recompose must reproduce the input exactly.
			assert.InDelta(t, c[0], a00, math.Max(tol, 1e-9))
			assert.InDelta(t, c[1], a01, math.Max(tol, 1e-9))
			assert.InDelta(t, c[2], a11, math.Max(tol, 1e-9))
		}
	}
}

func TestDecompose3Diagonal(t *testing.T) {
	r, err := Decompose3(1, 0, 0, 4, 0, 9)
	require.NoError(t, err)
	vals := r.Values
	assert.ElementsMatch(t, []float64{1, 4, 9}, []float64{vals[0], vals[1], vals[2]})
}

func TestDecompose3Zero(t *testing.T) {
	r, err := Decompose3(0, 0, 0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Result3{}, r)
}

func TestDecompose3NonFinite(t *testing.T) {
	_, err := Decompose3(math.Inf(1), 0, 0, 1, 0, 1)
	require.ErrorIs(t, err, ErrNonFinite)
}

func TestDecompose3RoundTrip(t *testing.T) {
	cases := [][6]float64{
		{2, 0, 0, 2, 0, 2},
		{4, 1, 0, 3, 1, 5},
		{1, 0.5, 0.2, 2, 0.1, 3},
	}
	for _, c := range cases {
		r, err := Decompose3(c[0], c[1], c[2], c[3], c[4], c[5])
		require.NoError(t, err)

		a00, a01, a02, a11, a12, a22 := Recompose3(r.Values, r.Vectors)
		norm := Frobenius([]float64{c[0], c[1], c[2], c[1], c[3], c[4], c[2], c[4], c[5]})
		tol := math.Max(8*2.220446049250313e-16*norm, 1e-8)
		assert.InDelta(t, c[0], a00, tol)
		assert.InDelta(t, c[1], a01, tol)
		assert.InDelta(t, c[2], a02, tol)
		assert.InDelta(t, c[3], a11, tol)
		assert.InDelta(t, c[4], a12, tol)
		assert.InDelta(t, c[5], a22, tol)
	}
}

func TestDecompose3IndefiniteAbsoluteValue(t *testing.T) {
	// diag(1, -4, 2): eigenvalues are exactly the diagonal entries.
	r, err := Decompose3(1, 0, 0, -4, 0, 2)
	require.NoError(t, err)
	got := []float64{r.Values[0], r.Values[1], r.Values[2]}
	assert.ElementsMatch(t, []float64{1, 4, 2}, got)
}
