package operator

import "errors"

var (
	// ErrShape indicates operands with incompatible dimensions, or a
	// non-square matrix where a square one is required.
	ErrShape = errors.New("operator: shape mismatch")

	// ErrInvalidArgument indicates an argument outside its valid domain
	// (non-positive order, nil function).
	ErrInvalidArgument = errors.New("operator: invalid argument")
)
