package tensor

import "gonum.org/v1/gonum/mat"

// tensor2 is the 2x2 row-major storage: [M00, M01, M10, M11].
type tensor2 struct {
	raw [4]float64
}

func newTensor2(raw []float64) (Tensor, error) {
	if len(raw) != 4 {
		return nil, ErrShapeMismatch
	}
	if hasNonFinite(raw) {
		return nil, ErrNonFinite
	}
	var t tensor2
	copy(t.raw[:], raw)
	return t, nil
}

func (t tensor2) Dim() Dim { return D2 }

func (t tensor2) Raw() []float64 {
	out := make([]float64, 4)
	copy(out, t.raw[:])
	return out
}

func (t tensor2) IsZero() bool { return isZeroRaw(t.raw[:]) }

func (t tensor2) AspectRatio() (float64, bool) { return aspectRatioRaw(2, t.raw[:]) }

func (t tensor2) PositiveDefinite() (Tensor, error) {
	raw, err := positiveDefiniteRaw(2, t.raw[:])
	if err != nil {
		return nil, err
	}
	return newTensor2(raw)
}

func (t tensor2) Isotropise() (Tensor, error) {
	raw, err := isotropiseRaw(2, t.raw[:])
	if err != nil {
		return nil, err
	}
	return newTensor2(raw)
}

func (t tensor2) Scale(s float64) Tensor {
	var out tensor2
	for i, v := range t.raw {
		out.raw[i] = v * s
	}
	return out
}

func (t tensor2) Constrain(other Tensor, preserveShort bool) (Tensor, bool, error) {
	if other == nil {
		return t, false, nil
	}
	o2, ok := other.(tensor2)
	if !ok {
		return nil, false, ErrShapeMismatch
	}
	raw, changed, err := constrainRaw(2, t.raw[:], o2.raw[:], preserveShort)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return t, false, nil
	}
	out, err := newTensor2(raw)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (t tensor2) EigenDecomp() ([]float64, *mat.Dense, error) {
	return decomposeRaw(2, t.raw[:])
}

func (t tensor2) EigenUndecomp(values []float64, vectors *mat.Dense) (Tensor, error) {
	raw, err := eigenUndecompRaw(2, values, vectors)
	if err != nil {
		return nil, err
	}
	return newTensor2(raw)
}

func (t tensor2) AverageLength() float64 {
	avg, _, _ := lengthStatsRaw(2, t.raw[:])
	return avg
}

func (t tensor2) MaxLength() float64 {
	_, max, _ := lengthStatsRaw(2, t.raw[:])
	return max
}

func (t tensor2) MinLength() float64 {
	_, _, min := lengthStatsRaw(2, t.raw[:])
	return min
}
