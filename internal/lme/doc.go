// Package lme integrates the Lindblad Master Equation
//
//	d rho/dt = -i[H, rho] + sum_k ( L_k rho L_k^H - 1/2 {L_k^H L_k, rho} )
//
// for a dense density operator with a fixed step.
//
// The package is organised around a few pieces:
//
//   - [DerivativeFunc]: the time-derivative hook; [Derivative] is the default
//   - [Stepper]: fixed-step update rules, [Euler] and [RK4]
//   - [Engine]: validates the problem, runs the loop, tracks drift
//   - [Observer], [Metric]: side channels notified while stepping
//
// # Custom dynamics
//
// A controller modulating the Hamiltonian plugs in through
// [WithDerivative]. The value given to [WithAuxData] is handed to the
// derivative function unchanged on every call:
//
//	eng := lme.New(
//		lme.WithDerivative(control.Derivative),
//		lme.WithAuxData(feedback),
//	)
//	res, err := eng.Run(rho0, h, nil, 0.01, 10, lme.MethodRK4)
//
// # Thread Safety
//
// Each Run owns its trajectory, but metrics attached with [WithMetric]
// accumulate across runs and are reset at the start of each one. Concurrent
// runs therefore need separate engines whenever metrics or a stateful
// observer or aux value are attached; build one engine per run, as the
// experiment package does.
package lme
