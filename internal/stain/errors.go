package stain

import (
	"errors"
	"fmt"
)

// ErrInvalidStainMatrix is the umbrella error for any configuration that
// cannot produce an unmixing matrix.
var ErrInvalidStainMatrix = errors.New("invalid stain matrix")

var (
	// ErrDegenerateVector is returned when a supplied vector has zero magnitude.
	ErrDegenerateVector = fmt.Errorf("%w: degenerate stain vector", ErrInvalidStainMatrix)

	// ErrSingularMatrix is returned when the assembled matrix cannot be inverted.
	ErrSingularMatrix = fmt.Errorf("%w: singular stain matrix", ErrInvalidStainMatrix)
)
