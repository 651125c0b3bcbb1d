// Package fme integrates the Wiseman-Milburn Markovian feedback master
// equation by mapping it onto an equivalent Lindblad problem.
//
// With Hamiltonian H, measurement operator M and feedback operator F the
// equivalent LME has
//
//	H_lme = H + 1/2 (FM + (FM)^H)
//	L_lme = M - (0 - i) F = M + iF
package fme

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
	"github.com/san-kum/qdsim/internal/signal"
)

// DeriveLMEOperators converts (H, M, F) into the Hamiltonian and the single
// Lindblad operator of the equivalent LME.
func DeriveLMEOperators(h, m, f *mat.CDense) (hLME, lLME *mat.CDense, err error) {
	if !operator.IsSquare(h) || !operator.IsSquare(m) || !operator.IsSquare(f) ||
		!operator.SameShape(h, m) || !operator.SameShape(h, f) {
		return nil, nil, fmt.Errorf("H, M and F must be square of equal order: %w", lme.ErrShape)
	}
	if !operator.IsHermitian(h) {
		return nil, nil, fmt.Errorf("hamiltonian is not Hermitian: %w", lme.ErrInvariantViolation)
	}

	fm, err := operator.Mul(f, m)
	if err != nil {
		return nil, nil, err
	}
	sym, err := operator.Add(fm, operator.Adjoint(fm))
	if err != nil {
		return nil, nil, err
	}
	if hLME, err = operator.AddScaled(h, 0.5, sym); err != nil {
		return nil, nil, err
	}
	if lLME, err = operator.AddScaled(m, 1i, f); err != nil {
		return nil, nil, err
	}
	return hLME, lLME, nil
}

// Integrate converts the feedback problem and runs it through the LME
// engine with [L_lme] as the only Lindblad operator. opts configure the
// engine as for lme.New.
func Integrate(dop0, h, m, f *mat.CDense, tstep, tf float64, method lme.Method, opts ...lme.Option) (*signal.Trajectory, error) {
	res, err := Run(lme.New(opts...), dop0, h, m, f, tstep, tf, method)
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}

// Run is Integrate on a caller-supplied engine, returning the full result.
func Run(eng *lme.Engine, dop0, h, m, f *mat.CDense, tstep, tf float64, method lme.Method) (*lme.Result, error) {
	hLME, lLME, err := DeriveLMEOperators(h, m, f)
	if err != nil {
		return nil, err
	}
	return eng.Run(dop0, hLME, []*mat.CDense{lLME}, tstep, tf, method)
}
