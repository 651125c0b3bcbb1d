// Package analysis provides tools for characterising integrated master
// equations and their trajectories.
//
//   - [Spectrum]: eigenvalues of a superoperator generator
//   - [SlowestDecayRate], [IsStable]: relaxation properties of a generator
//   - [BlochVector]: Bloch coordinates of a two-level trajectory
//   - [ExponentialBound]: reference relaxation envelope
//   - [PowerSpectrum], [DominantFrequency]: frequency content of a series
//
// # Relaxation
//
// The generator of a Lindblad equation, expressed on the Hermitian subspace,
// has spectrum in the closed left half-plane; the eigenvalue 0 corresponds
// to the stationary state:
//
//	gen, _ := operator.HermitianSubspaceGenerator(lme.Superoperator(h, lk), n)
//	rate, _ := analysis.SlowestDecayRate(gen, 1e-9)
package analysis
