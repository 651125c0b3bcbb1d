package operator

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// InnerProduct returns the Hilbert-Schmidt inner product <a,b> = tr(a^H b).
func InnerProduct(a, b *mat.CDense) (complex128, error) {
	if IsEmpty(a) || IsEmpty(b) || !SameShape(a, b) {
		return 0, ErrShape
	}
	// tr(a^H b) = sum_ij conj(a_ij) b_ij
	r, c := a.Dims()
	var sum complex128
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += cmplx.Conj(a.At(i, j)) * b.At(i, j)
		}
	}
	return sum, nil
}

// Norm returns the norm induced by the Hilbert-Schmidt inner product.
// The result is real and nonnegative; it is returned as complex128 to
// match InnerProduct.
func Norm(a *mat.CDense) complex128 {
	ip, err := InnerProduct(a, a)
	if err != nil {
		return 0
	}
	return cmplx.Sqrt(ip)
}

// Commutator returns [a,b] = ab - ba.
func Commutator(a, b *mat.CDense) (*mat.CDense, error) {
	ab, ba, err := products(a, b)
	if err != nil {
		return nil, err
	}
	return Sub(ab, ba)
}

// Anticommutator returns {a,b} = ab + ba.
func Anticommutator(a, b *mat.CDense) (*mat.CDense, error) {
	ab, ba, err := products(a, b)
	if err != nil {
		return nil, err
	}
	return Add(ab, ba)
}

func products(a, b *mat.CDense) (ab, ba *mat.CDense, err error) {
	if !IsSquare(a) || !IsSquare(b) || !SameShape(a, b) {
		return nil, nil, ErrShape
	}
	if ab, err = Mul(a, b); err != nil {
		return nil, nil, err
	}
	if ba, err = Mul(b, a); err != nil {
		return nil, nil, err
	}
	return ab, ba, nil
}
