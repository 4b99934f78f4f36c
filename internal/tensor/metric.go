package tensor

import "gonum.org/v1/gonum/mat"

// MetricTensor is the public SPD-tensor handle: it fixes its dimension on
// first Set and rejects any later Set with a different dimension via
// ErrShapeMismatch.
type MetricTensor struct {
	cur Tensor
}

// NewMetricTensor returns an empty handle; its dimension is fixed by the
// first call to Set.
func NewMetricTensor() *MetricTensor {
	return &MetricTensor{}
}

// Dim reports the fixed dimension, or 0 if Set has never been called.
func (m *MetricTensor) Dim() Dim {
	if m.cur == nil {
		return 0
	}
	return m.cur.Dim()
}

// Set stores raw (row-major, dim*dim) and projects it onto the SPD cone.
// A later call with a different dim than the one fixed by the first Set
// returns ErrShapeMismatch; callers should treat that as fatal. A
// non-finite result leaves the receiver unchanged.
func (m *MetricTensor) Set(dim Dim, raw []float64) error {
	if m.cur != nil && m.cur.Dim() != dim {
		return ErrShapeMismatch
	}
	t, err := FromRaw(dim, raw)
	if err != nil {
		return err
	}
	pd, err := t.PositiveDefinite()
	if err != nil {
		return err
	}
	m.cur = pd
	return nil
}

// Get returns a copy of the current SPD tensor, row-major.
func (m *MetricTensor) Get() []float64 {
	if m.cur == nil {
		return nil
	}
	return m.cur.Raw()
}

// View returns the current tensor as a mat.Matrix. The matrix is built over
// a fresh copy of the stored entries, so it does not share storage with m
// and later mutator calls on m do not change it.
func (m *MetricTensor) View() mat.Matrix {
	if m.cur == nil {
		return nil
	}
	raw := m.cur.Raw()
	d := int(m.cur.Dim())
	return mat.NewDense(d, d, raw)
}

// Scale multiplies the stored tensor by s (s >= 0 keeps it SPD).
func (m *MetricTensor) Scale(s float64) {
	if m.cur == nil {
		return
	}
	m.cur = m.cur.Scale(s)
}

// IsZero reports whether the current tensor is the all-zero sentinel.
func (m *MetricTensor) IsZero() bool {
	return m.cur == nil || m.cur.IsZero()
}

// AverageLength returns sqrt(d/sum(lambda)); NaN if any eigenvalue is zero.
func (m *MetricTensor) AverageLength() float64 {
	if m.cur == nil {
		return 0
	}
	return m.cur.AverageLength()
}

// MaxLength returns sqrt(1/lambda_min), the longest edge length under M.
func (m *MetricTensor) MaxLength() float64 {
	if m.cur == nil {
		return 0
	}
	return m.cur.MaxLength()
}

// MinLength returns sqrt(1/lambda_max), the shortest edge length under M.
func (m *MetricTensor) MinLength() float64 {
	if m.cur == nil {
		return 0
	}
	return m.cur.MinLength()
}

// EigenDecomp delegates to internal/eigen via the current Tensor.
func (m *MetricTensor) EigenDecomp() (values []float64, vectors *mat.Dense, err error) {
	if m.cur == nil {
		return nil, nil, nil
	}
	return m.cur.EigenDecomp()
}

// EigenUndecomp stores V*diag(|values|)*V^T.
func (m *MetricTensor) EigenUndecomp(values []float64, vectors *mat.Dense) error {
	if m.cur == nil {
		return ErrShapeMismatch
	}
	t, err := m.cur.EigenUndecomp(values, vectors)
	if err != nil {
		return err
	}
	m.cur = t
	return nil
}

// Isotropise clamps every eigenvalue to the smallest one, in both 2D and 3D.
func (m *MetricTensor) Isotropise() error {
	if m.cur == nil {
		return nil
	}
	t, err := m.cur.Isotropise()
	if err != nil {
		return err
	}
	m.cur = t
	return nil
}

// Constrain intersects the receiver with otherRaw (row-major, same
// dimension), preserving short edges when preserveShort is true. It is a
// no-op if otherRaw is zero or contains any non-finite entry, or if the
// receiver itself is zero.
func (m *MetricTensor) Constrain(otherRaw []float64, preserveShort bool) error {
	if m.cur == nil {
		// An unset handle is the zero sentinel (see IsZero): no-op.
		return nil
	}
	dim := int(m.cur.Dim())
	if len(otherRaw) != dim*dim {
		return ErrShapeMismatch
	}
	if hasNonFinite(otherRaw) {
		// Non-finite M' is a no-op rather than a propagated error.
		return nil
	}
	other, err := FromRaw(m.cur.Dim(), otherRaw)
	if err != nil {
		return err
	}
	out, changed, err := m.cur.Constrain(other, preserveShort)
	if err != nil {
		return err
	}
	if changed {
		m.cur = out
	}
	return nil
}

// AspectRatio returns lambda_min/lambda_max; ok is false for a zero tensor.
func (m *MetricTensor) AspectRatio() (ratio float64, ok bool) {
	if m.cur == nil {
		return 0, false
	}
	return m.cur.AspectRatio()
}
