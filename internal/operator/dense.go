package operator

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// New returns an r x c matrix backed by data in row-major order. A nil
// data slice allocates a zero matrix.
func New(r, c int, data []complex128) *mat.CDense {
	return mat.NewCDense(r, c, data)
}

// Zeros returns an r x c zero matrix.
func Zeros(r, c int) *mat.CDense {
	return mat.NewCDense(r, c, nil)
}

// Identity returns the n x n identity.
func Identity(n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Clone returns a deep copy of a.
func Clone(a mat.CMatrix) *mat.CDense {
	r, c := a.Dims()
	m := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, a.At(i, j))
		}
	}
	return m
}

// IsEmpty reports whether a is nil or has a zero dimension.
func IsEmpty(a *mat.CDense) bool {
	return a == nil || a.IsEmpty()
}

// IsSquare reports whether a is a non-empty square matrix.
func IsSquare(a *mat.CDense) bool {
	if IsEmpty(a) {
		return false
	}
	r, c := a.Dims()
	return r == c
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b mat.CMatrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// Add returns a + b.
func Add(a, b *mat.CDense) (*mat.CDense, error) {
	return AddScaled(a, 1, b)
}

// Sub returns a - b.
func Sub(a, b *mat.CDense) (*mat.CDense, error) {
	return AddScaled(a, -1, b)
}

// AddScaled returns a + alpha*b.
func AddScaled(a *mat.CDense, alpha complex128, b *mat.CDense) (*mat.CDense, error) {
	if IsEmpty(a) || IsEmpty(b) || !SameShape(a, b) {
		return nil, ErrShape
	}
	r, c := a.Dims()
	m := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, a.At(i, j)+alpha*b.At(i, j))
		}
	}
	return m, nil
}

// Scale returns alpha*a.
func Scale(alpha complex128, a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	m := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, alpha*a.At(i, j))
		}
	}
	return m
}

// Mul returns the matrix product ab.
func Mul(a, b *mat.CDense) (*mat.CDense, error) {
	return gemm(blas.NoTrans, a, b)
}

// MulH returns a^H b without materialising the adjoint.
func MulH(a, b *mat.CDense) (*mat.CDense, error) {
	return gemm(blas.ConjTrans, a, b)
}

func gemm(tA blas.Transpose, a, b *mat.CDense) (*mat.CDense, error) {
	if IsEmpty(a) || IsEmpty(b) {
		return nil, ErrShape
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if tA == blas.ConjTrans {
		ar, ac = ac, ar
	}
	if ac != br {
		return nil, ErrShape
	}
	m := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(tA, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, m.RawCMatrix())
	return m, nil
}

// Adjoint returns the conjugate transpose a^H.
func Adjoint(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	m := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return m
}

// Trace returns the sum of the diagonal of a square matrix.
func Trace(a *mat.CDense) (complex128, error) {
	if !IsSquare(a) {
		return 0, ErrShape
	}
	n, _ := a.Dims()
	var tr complex128
	for i := 0; i < n; i++ {
		tr += a.At(i, i)
	}
	return tr, nil
}

// IsHermitian reports whether a equals its conjugate transpose exactly.
func IsHermitian(a *mat.CDense) bool {
	if !IsSquare(a) {
		return false
	}
	return HermiticityDeviation(a) == 0
}

// HermiticityDeviation returns max |a_ij - conj(a_ji)|, or +Inf for a
// non-square matrix.
func HermiticityDeviation(a *mat.CDense) float64 {
	if !IsSquare(a) {
		return math.Inf(1)
	}
	n, _ := a.Dims()
	dev := 0.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := cmplx.Abs(a.At(i, j) - cmplx.Conj(a.At(j, i)))
			if d > dev {
				dev = d
			}
		}
	}
	return dev
}

// MaxAbs returns the largest element magnitude of a.
func MaxAbs(a *mat.CDense) float64 {
	r, c := a.Dims()
	largest := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := cmplx.Abs(a.At(i, j)); v > largest {
				largest = v
			}
		}
	}
	return largest
}

// IsFinite reports whether every element of a is free of NaN and Inf.
func IsFinite(a *mat.CDense) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}
