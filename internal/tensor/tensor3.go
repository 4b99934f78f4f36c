package tensor

import "gonum.org/v1/gonum/mat"

// tensor3 is the 3x3 row-major storage, 9 scalars.
type tensor3 struct {
	raw [9]float64
}

func newTensor3(raw []float64) (Tensor, error) {
	if len(raw) != 9 {
		return nil, ErrShapeMismatch
	}
	if hasNonFinite(raw) {
		return nil, ErrNonFinite
	}
	var t tensor3
	copy(t.raw[:], raw)
	return t, nil
}

func (t tensor3) Dim() Dim { return D3 }

func (t tensor3) Raw() []float64 {
	out := make([]float64, 9)
	copy(out, t.raw[:])
	return out
}

func (t tensor3) IsZero() bool { return isZeroRaw(t.raw[:]) }

func (t tensor3) AspectRatio() (float64, bool) { return aspectRatioRaw(3, t.raw[:]) }

func (t tensor3) PositiveDefinite() (Tensor, error) {
	raw, err := positiveDefiniteRaw(3, t.raw[:])
	if err != nil {
		return nil, err
	}
	return newTensor3(raw)
}

func (t tensor3) Isotropise() (Tensor, error) {
	raw, err := isotropiseRaw(3, t.raw[:])
	if err != nil {
		return nil, err
	}
	return newTensor3(raw)
}

func (t tensor3) Scale(s float64) Tensor {
	var out tensor3
	for i, v := range t.raw {
		out.raw[i] = v * s
	}
	return out
}

func (t tensor3) Constrain(other Tensor, preserveShort bool) (Tensor, bool, error) {
	if other == nil {
		return t, false, nil
	}
	o3, ok := other.(tensor3)
	if !ok {
		return nil, false, ErrShapeMismatch
	}
	raw, changed, err := constrainRaw(3, t.raw[:], o3.raw[:], preserveShort)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return t, false, nil
	}
	out, err := newTensor3(raw)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (t tensor3) EigenDecomp() ([]float64, *mat.Dense, error) {
	return decomposeRaw(3, t.raw[:])
}

func (t tensor3) EigenUndecomp(values []float64, vectors *mat.Dense) (Tensor, error) {
	raw, err := eigenUndecompRaw(3, values, vectors)
	if err != nil {
		return nil, err
	}
	return newTensor3(raw)
}

func (t tensor3) AverageLength() float64 {
	avg, _, _ := lengthStatsRaw(3, t.raw[:])
	return avg
}

func (t tensor3) MaxLength() float64 {
	_, max, _ := lengthStatsRaw(3, t.raw[:])
	return max
}

func (t tensor3) MinLength() float64 {
	_, _, min := lengthStatsRaw(3, t.raw[:])
	return min
}
