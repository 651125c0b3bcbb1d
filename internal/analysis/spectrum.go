package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotSquare is returned for a non-square generator.
	ErrNotSquare = errors.New("analysis: generator is not square")

	// ErrFactorize is returned when the eigendecomposition does not converge.
	ErrFactorize = errors.New("analysis: eigendecomposition failed")
)

// Spectrum returns the eigenvalues of gen sorted by decreasing real part.
func Spectrum(gen mat.Matrix) ([]complex128, error) {
	r, c := gen.Dims()
	if r != c || r == 0 {
		return nil, ErrNotSquare
	}
	var eig mat.Eigen
	if !eig.Factorize(gen, mat.EigenNone) {
		return nil, ErrFactorize
	}
	values := eig.Values(nil)
	sort.SliceStable(values, func(i, j int) bool {
		return real(values[i]) > real(values[j])
	})
	return values, nil
}

// IsStable reports whether no eigenvalue of gen has real part above tol.
// The generator of a physical master equation is always stable; a
// custom derivative that breaks this pumps energy into the state.
func IsStable(gen mat.Matrix, tol float64) (bool, error) {
	values, err := Spectrum(gen)
	if err != nil {
		return false, err
	}
	return real(values[0]) <= tol, nil
}

// SlowestDecayRate returns the smallest |Re lambda| among eigenvalues with
// Re lambda < -tol, i.e. the asymptotic relaxation rate toward the
// stationary state. It returns 0 when no eigenvalue decays.
func SlowestDecayRate(gen mat.Matrix, tol float64) (float64, error) {
	values, err := Spectrum(gen)
	if err != nil {
		return 0, err
	}
	rate := math.Inf(1)
	for _, v := range values {
		if re := real(v); re < -tol && -re < rate {
			rate = -re
		}
	}
	if math.IsInf(rate, 1) {
		return 0, nil
	}
	return rate, nil
}
