package lme

import (
	"errors"
	"fmt"

	"github.com/san-kum/qdsim/internal/operator"
)

// Domain errors for integration runs.
var (
	// ErrShape indicates operators of mismatched or non-square shape.
	ErrShape = operator.ErrShape

	// ErrInvalidArgument indicates bad timing parameters or an unknown method.
	ErrInvalidArgument = operator.ErrInvalidArgument

	// ErrInvariantViolation indicates a non-Hermitian operator or an
	// initial state without unit trace.
	ErrInvariantViolation = errors.New("lme: invariant violation")

	// ErrNumerical indicates the state became non-finite while stepping.
	ErrNumerical = errors.New("lme: numerical failure (NaN or Inf detected)")
)

// StepError wraps a failure raised while stepping with its position in
// the run.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
