package control

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
)

// ErrNoFeedback is returned by Derivative when the aux value is not a
// *Feedback.
var ErrNoFeedback = errors.New("control: aux data is not a *Feedback")

// Feedback drives Hc with the output of a PID fed by <Observable>.
type Feedback struct {
	Observable *mat.CDense
	Control    *mat.CDense
	PID        *PID
	// MaxAmplitude clamps |u| when positive.
	MaxAmplitude float64

	last float64
}

func NewFeedback(observable, control *mat.CDense, pid *PID) *Feedback {
	return &Feedback{Observable: observable, Control: control, PID: pid}
}

// Amplitude returns the last control amplitude applied.
func (f *Feedback) Amplitude() float64 { return f.last }

// Validate checks the operators against a system of order n.
func (f *Feedback) Validate(n int) error {
	if f.PID == nil {
		return fmt.Errorf("control: nil PID: %w", lme.ErrInvalidArgument)
	}
	ops := []struct {
		name string
		m    *mat.CDense
	}{{"observable", f.Observable}, {"control", f.Control}}
	for _, op := range ops {
		name, m := op.name, op.m
		if m == nil || !operator.IsSquare(m) {
			return fmt.Errorf("control: %s must be square: %w", name, lme.ErrShape)
		}
		if r, _ := m.Dims(); r != n {
			return fmt.Errorf("control: %s must have order %d: %w", name, n, lme.ErrShape)
		}
		if !operator.IsHermitian(m) {
			return fmt.Errorf("control: %s is not Hermitian: %w", name, lme.ErrInvariantViolation)
		}
	}
	return nil
}

// Expectation returns Re tr(Observable rho).
func (f *Feedback) Expectation(state *mat.CDense) (float64, error) {
	// tr(O rho) = <O, rho> for Hermitian O
	ip, err := operator.InnerProduct(f.Observable, state)
	if err != nil {
		return 0, err
	}
	return real(ip), nil
}

// Hamiltonian returns H + u Hc for the control computed from state at t.
func (f *Feedback) Hamiltonian(state, h *mat.CDense, t float64) (*mat.CDense, error) {
	value, err := f.Expectation(state)
	if err != nil {
		return nil, err
	}
	u := f.PID.Compute(value, t)
	if f.MaxAmplitude > 0 {
		u = math.Max(-f.MaxAmplitude, math.Min(f.MaxAmplitude, u))
	}
	f.last = u
	return operator.AddScaled(h, complex(u, 0), f.Control)
}

// Derivative is an lme.DerivativeFunc that recomputes the effective
// Hamiltonian through the *Feedback carried in aux.
func Derivative(state, h *mat.CDense, lk []*mat.CDense, aux any, t float64) (*mat.CDense, error) {
	fb, ok := aux.(*Feedback)
	if !ok || fb == nil {
		return nil, ErrNoFeedback
	}
	hEff, err := fb.Hamiltonian(state, h, t)
	if err != nil {
		return nil, err
	}
	return lme.Derivative(state, hEff, lk, nil, t)
}
