// Package tensor implements the anisotropic SPD metric-tensor algebra:
// positive-definiteness projection, metric intersection ("constrain"),
// eigen decomposition/recomposition, and length queries under a metric.
// Dimension (2 or 3) is carried as a distinct concrete type per tensor
// rather than a runtime field, so a field of many tensors dispatches
// through the Tensor interface's vtable. The shared kernels in raw.go
// still take the dimension as an integer and branch on it.
package tensor

import "gonum.org/v1/gonum/mat"

// Dim is the tensor dimension: 2 or 3.
type Dim int

const (
	D2 Dim = 2
	D3 Dim = 3
)

// Tensor is a symmetric, dimension-tagged matrix that is always either SPD
// or identically zero. Implementations are immutable values:
// every operator returns a new Tensor (or an error, leaving the receiver's
// semantic value untouched) rather than mutating in place.
type Tensor interface {
	Dim() Dim
	Raw() []float64
	IsZero() bool
	AspectRatio() (ratio float64, ok bool)

	PositiveDefinite() (Tensor, error)
	Isotropise() (Tensor, error)
	Scale(s float64) Tensor
	Constrain(other Tensor, preserveShort bool) (out Tensor, changed bool, err error)

	EigenDecomp() (values []float64, vectors *mat.Dense, err error)
	EigenUndecomp(values []float64, vectors *mat.Dense) (Tensor, error)

	AverageLength() float64
	MaxLength() float64
	MinLength() float64
}

// FromRaw builds a Tensor of the given dimension from a row-major raw
// matrix, without SPD projection. Use MetricTensor.Set for the projecting
// constructor callers normally want.
func FromRaw(dim Dim, raw []float64) (Tensor, error) {
	switch dim {
	case D2:
		return newTensor2(raw)
	case D3:
		return newTensor3(raw)
	default:
		return nil, ErrShapeMismatch
	}
}
