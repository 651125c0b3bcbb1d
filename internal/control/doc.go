// Package control provides closed-loop controllers that act on a quantum
// system through the derivative hook of the lme engine.
//
// A controller measures the expectation value of an observable and
// modulates a control Hamiltonian, so the effective generator becomes
//
//	H_eff(t) = H + u(t) Hc
//
// The [Feedback] value is handed to the engine as its aux data:
//
//	fb := control.NewFeedback(sz, sx, control.NewPID(2, 0, 0, -1))
//	eng := lme.New(lme.WithDerivative(control.Derivative), lme.WithAuxData(fb))
//	res, err := eng.Run(rho0, h, lk, 0.01, 10, lme.MethodRK4)
//
// Controllers carry state across calls, so a Feedback must not be shared
// between concurrent runs.
package control
