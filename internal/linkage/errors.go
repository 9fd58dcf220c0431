package linkage

import (
	"errors"
	"fmt"
)

// Construction errors. Per-frame geometry never fails.
var (
	// ErrNonPositiveLength indicates a link length that is zero or negative.
	ErrNonPositiveLength = errors.New("linkage: link length must be positive")

	// ErrNonFinite indicates a NaN or Inf coordinate, angle or speed.
	ErrNonFinite = errors.New("linkage: value must be finite (NaN or Inf detected)")
)

// ParameterError wraps a construction error with the offending field.
type ParameterError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s (%s=%g)", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return e.Wrapped
}
