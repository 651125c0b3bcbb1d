package lme

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// DerivativeFunc returns d rho/dt for the given state. aux is the opaque
// value configured with WithAuxData; t is the integrator time of the
// current step.
type DerivativeFunc func(state, h *mat.CDense, lk []*mat.CDense, aux any, t float64) (*mat.CDense, error)

// HamiltonianDt returns the coherent part -i[H, rho].
func HamiltonianDt(state, h *mat.CDense) (*mat.CDense, error) {
	c, err := operator.Commutator(h, state)
	if err != nil {
		return nil, err
	}
	return operator.Scale(-1i, c), nil
}

// LindbladianDt returns the dissipator sum_k L rho L^H - 1/2 {L^H L, rho}.
// It is the zero matrix for an empty operator set.
func LindbladianDt(state *mat.CDense, lk []*mat.CDense) (*mat.CDense, error) {
	if operator.IsEmpty(state) {
		return nil, ErrShape
	}
	r, c := state.Dims()
	dt := operator.Zeros(r, c)
	for k, l := range lk {
		term, err := dissipator(state, l)
		if err != nil {
			return nil, fmt.Errorf("lindblad operator %d: %w", k, err)
		}
		if dt, err = operator.Add(dt, term); err != nil {
			return nil, err
		}
	}
	return dt, nil
}

func dissipator(state, l *mat.CDense) (*mat.CDense, error) {
	lAdjL, err := operator.MulH(l, l)
	if err != nil {
		return nil, err
	}
	lRho, err := operator.Mul(l, state)
	if err != nil {
		return nil, err
	}
	jump, err := operator.Mul(lRho, operator.Adjoint(l))
	if err != nil {
		return nil, err
	}
	ac, err := operator.Anticommutator(lAdjL, state)
	if err != nil {
		return nil, err
	}
	return operator.AddScaled(jump, -0.5, ac)
}

// Derivative is the default DerivativeFunc: HamiltonianDt + LindbladianDt.
// aux and t are ignored.
func Derivative(state, h *mat.CDense, lk []*mat.CDense, _ any, _ float64) (*mat.CDense, error) {
	coherent, err := HamiltonianDt(state, h)
	if err != nil {
		return nil, err
	}
	dissipative, err := LindbladianDt(state, lk)
	if err != nil {
		return nil, err
	}
	return operator.Add(coherent, dissipative)
}

// Superoperator binds h and lk into the linear map rho -> Derivative(rho),
// suitable for operator.HermitianSubspaceGenerator.
func Superoperator(h *mat.CDense, lk []*mat.CDense) operator.SuperOperator {
	return func(x *mat.CDense) (*mat.CDense, error) {
		return Derivative(x, h, lk, nil, 0)
	}
}
