// Package signal records time series of matrices, such as the density
// operator evolution produced by the integrators.
package signal

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// ErrShapeMismatch is returned by Append when a matrix does not match the
// shape locked in by the first append. It also matches operator.ErrShape.
var ErrShapeMismatch = fmt.Errorf("signal: shape mismatch: %w", operator.ErrShape)

// ErrEmpty is returned by accessors that need at least one sample.
var ErrEmpty = errors.New("signal: empty trajectory")

// Trajectory is an append-only, chronologically ordered series of
// (time, matrix) samples. All samples share the shape of the first one.
type Trajectory struct {
	name     string
	timeline []float64
	values   []*mat.CDense
	rows     int
	cols     int
}

// New returns an empty trajectory.
func New(name string) *Trajectory {
	if name == "" {
		name = "unnamed signal"
	}
	return &Trajectory{name: name}
}

func (s *Trajectory) Name() string { return s.name }

// Len returns the number of recorded samples.
func (s *Trajectory) Len() int { return len(s.timeline) }

// At returns the i-th sample. It panics if i is out of range, like a
// slice index.
func (s *Trajectory) At(i int) (float64, *mat.CDense) {
	return s.timeline[i], s.values[i]
}

// Shape returns the shape fixed by the first append; ok is false while
// the trajectory is empty.
func (s *Trajectory) Shape() (r, c int, ok bool) {
	if len(s.timeline) == 0 {
		return 0, 0, false
	}
	return s.rows, s.cols, true
}

// Append records value at time t. The stored matrix is not copied; callers
// must not mutate it afterwards.
func (s *Trajectory) Append(t float64, value *mat.CDense) error {
	if operator.IsEmpty(value) {
		return fmt.Errorf("append at t=%g: empty matrix: %w", t, ErrShapeMismatch)
	}
	r, c := value.Dims()
	if len(s.timeline) == 0 {
		s.rows, s.cols = r, c
	} else if r != s.rows || c != s.cols {
		return fmt.Errorf("append at t=%g: got %dx%d, want %dx%d: %w",
			t, r, c, s.rows, s.cols, ErrShapeMismatch)
	}

	s.timeline = append(s.timeline, t)
	s.values = append(s.values, value)
	return nil
}

// Timeline returns a copy of the recorded timestamps.
func (s *Trajectory) Timeline() []float64 {
	out := make([]float64, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// States returns a copy of the slice of recorded matrices.
func (s *Trajectory) States() []*mat.CDense {
	out := make([]*mat.CDense, len(s.values))
	copy(out, s.values)
	return out
}

// Last returns the most recent sample.
func (s *Trajectory) Last() (float64, *mat.CDense, error) {
	if len(s.timeline) == 0 {
		return 0, nil, ErrEmpty
	}
	i := len(s.timeline) - 1
	return s.timeline[i], s.values[i], nil
}

// UpperTriangleTrajectories returns one series per upper-triangle entry
// (row, col >= row), enumerated row ascending then col ascending. Series
// i holds that entry's value at every recorded time.
func (s *Trajectory) UpperTriangleTrajectories() ([][]complex128, error) {
	if len(s.timeline) == 0 {
		return [][]complex128{}, nil
	}
	if s.rows != s.cols {
		return nil, fmt.Errorf("upper triangle of %dx%d signal: %w", s.rows, s.cols, operator.ErrShape)
	}

	n := s.rows
	trajs := make([][]complex128, n*(n+1)/2)
	for i := range trajs {
		trajs[i] = make([]complex128, 0, len(s.values))
	}
	for _, v := range s.values {
		i := 0
		for row := 0; row < n; row++ {
			for col := row; col < n; col++ {
				trajs[i] = append(trajs[i], v.At(row, col))
				i++
			}
		}
	}
	return trajs, nil
}

// UpperTriangleIndex maps a series index of UpperTriangleTrajectories back
// to its (row, col) for an n x n signal.
func UpperTriangleIndex(n, i int) (row, col int) {
	for row = 0; row < n; row++ {
		width := n - row
		if i < width {
			return row, row + i
		}
		i -= width
	}
	return -1, -1
}
