package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
	"github.com/san-kum/qdsim/internal/signal"
)

// ErrNotQubit is returned when a trajectory is not made of 2 x 2 states.
var ErrNotQubit = errors.New("analysis: bloch vector requires 2x2 states")

// ErrNotHermitian is returned for 2 x 2 inputs that are not Hermitian
// within HermitianTolerance.
var ErrNotHermitian = errors.New("analysis: bloch vector requires a hermitian state")

// HermitianTolerance bounds operator.HermiticityDeviation for BlochOf.
const HermitianTolerance = 1e-6

var (
	pauliX = operator.New(2, 2, []complex128{0, 1, 1, 0})
	pauliY = operator.New(2, 2, []complex128{0, -1i, 1i, 0})
	pauliZ = operator.New(2, 2, []complex128{1, 0, 0, -1})
)

// Bloch holds the coordinates <sigma_i, rho> of a two-level state.
type Bloch struct {
	X, Y, Z float64
}

// Norm is 1 for pure states and below 1 for mixed ones.
func (b Bloch) Norm() float64 {
	return math.Sqrt(b.X*b.X + b.Y*b.Y + b.Z*b.Z)
}

// BlochOf returns the Bloch coordinates of a single 2 x 2 state.
func BlochOf(rho *mat.CDense) (Bloch, error) {
	if !operator.IsSquare(rho) {
		return Bloch{}, ErrNotQubit
	}
	if n, _ := rho.Dims(); n != 2 {
		return Bloch{}, ErrNotQubit
	}
	if operator.HermiticityDeviation(rho) > HermitianTolerance {
		return Bloch{}, ErrNotHermitian
	}
	x, _ := operator.InnerProduct(pauliX, rho)
	y, _ := operator.InnerProduct(pauliY, rho)
	z, _ := operator.InnerProduct(pauliZ, rho)
	return Bloch{X: real(x), Y: real(y), Z: real(z)}, nil
}

// BlochVector returns one Bloch vector per sample of traj.
func BlochVector(traj *signal.Trajectory) ([]Bloch, error) {
	if traj.Len() == 0 {
		return nil, signal.ErrEmpty
	}
	out := make([]Bloch, traj.Len())
	for i := range out {
		_, rho := traj.At(i)
		b, err := BlochOf(rho)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
