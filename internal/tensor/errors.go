package tensor

import "errors"

// ErrShapeMismatch is returned when Set is called with a dimension other
// than the one fixed by the tensor's first Set call. Per the original
// MetricTensor's "ERROR: MetricTensor resized" / exit(-1) behaviour, callers
// are expected to treat this as fatal rather than retry.
var ErrShapeMismatch = errors.New("tensor: dimension changed after first set")

// ErrNonFinite is returned when an operator would produce a NaN or Inf
// entry. The receiving MetricTensor is left unchanged.
var ErrNonFinite = errors.New("tensor: non-finite tensor entry")
