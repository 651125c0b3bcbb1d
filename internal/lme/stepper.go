package lme

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// Method names a fixed-step integration scheme.
type Method string

const (
	MethodEuler Method = "euler"
	MethodRK4   Method = "rk4"
)

// Methods lists the supported schemes.
func Methods() []Method {
	return []Method{MethodEuler, MethodRK4}
}

// ParseMethod maps a case-insensitive name to a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if _, err := NewStepper(m); err != nil {
		return "", err
	}
	return m, nil
}

// Stepper computes the state increment for one step of length tstep.
type Stepper interface {
	Delta(fn DerivativeFunc, aux any, t float64, state, h *mat.CDense, lk []*mat.CDense, tstep float64) (*mat.CDense, error)
}

// NewStepper returns the update rule for m.
func NewStepper(m Method) (Stepper, error) {
	switch m {
	case MethodEuler:
		return NewEuler(), nil
	case MethodRK4:
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integration method %q: %w", m, ErrInvalidArgument)
	}
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Delta(fn DerivativeFunc, aux any, t float64, state, h *mat.CDense, lk []*mat.CDense, tstep float64) (*mat.CDense, error) {
	d, err := eval(fn, state, h, lk, aux, t)
	if err != nil {
		return nil, err
	}
	return operator.Scale(complex(tstep, 0), d), nil
}

// RK4 is the classical 4-stage Runge-Kutta rule. All four stages are
// evaluated at the same time t.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Delta(fn DerivativeFunc, aux any, t float64, state, h *mat.CDense, lk []*mat.CDense, tstep float64) (*mat.CDense, error) {
	half := complex(0.5*tstep, 0)

	k1, err := eval(fn, state, h, lk, aux, t)
	if err != nil {
		return nil, err
	}
	x, err := operator.AddScaled(state, half, k1)
	if err != nil {
		return nil, err
	}
	k2, err := eval(fn, x, h, lk, aux, t)
	if err != nil {
		return nil, err
	}
	if x, err = operator.AddScaled(state, half, k2); err != nil {
		return nil, err
	}
	k3, err := eval(fn, x, h, lk, aux, t)
	if err != nil {
		return nil, err
	}
	if x, err = operator.AddScaled(state, complex(tstep, 0), k3); err != nil {
		return nil, err
	}
	k4, err := eval(fn, x, h, lk, aux, t)
	if err != nil {
		return nil, err
	}

	sum := operator.Scale(1.0/6, k1)
	for _, term := range []struct {
		w float64
		k *mat.CDense
	}{{1.0 / 3, k2}, {1.0 / 3, k3}, {1.0 / 6, k4}} {
		if sum, err = operator.AddScaled(sum, complex(term.w, 0), term.k); err != nil {
			return nil, err
		}
	}
	return operator.Scale(complex(tstep, 0), sum), nil
}

func eval(fn DerivativeFunc, state, h *mat.CDense, lk []*mat.CDense, aux any, t float64) (*mat.CDense, error) {
	d, err := fn(state, h, lk, aux, t)
	if err != nil {
		return nil, err
	}
	if operator.IsEmpty(d) || !operator.SameShape(d, state) {
		return nil, fmt.Errorf("derivative result: %w", ErrShape)
	}
	return d, nil
}
