package operator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SuperOperator is a linear map on n x n matrices.
type SuperOperator func(x *mat.CDense) (*mat.CDense, error)

// HermitianSubspaceBasis returns an orthonormal basis of the real vector
// space of n x n Hermitian matrices. The n^2 elements are enumerated over
// (row, col >= row) in row-major order: the diagonal unit E_rr when
// row == col, otherwise the symmetric pair (E_rc + E_cr)/sqrt2 followed by
// the antisymmetric pair i(E_rc - E_cr)/sqrt2.
func HermitianSubspaceBasis(n int) ([]*mat.CDense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("basis order %d: %w", n, ErrInvalidArgument)
	}
	s := complex(math.Sqrt2/2, 0)
	basis := make([]*mat.CDense, 0, n*n)
	for row := 0; row < n; row++ {
		for col := row; col < n; col++ {
			if row == col {
				m := Zeros(n, n)
				m.Set(row, col, 1)
				basis = append(basis, m)
				continue
			}
			sym := Zeros(n, n)
			sym.Set(row, col, s)
			sym.Set(col, row, s)
			basis = append(basis, sym)

			asym := Zeros(n, n)
			asym.Set(row, col, complex(0, math.Sqrt2/2))
			asym.Set(col, row, complex(0, -math.Sqrt2/2))
			basis = append(basis, asym)
		}
	}
	return basis, nil
}

// HermitianSubspaceGenerator returns the matrix of fn acting on the
// Hermitian subspace, in the basis of HermitianSubspaceBasis. Entry (r,c)
// is Re <basis[c], fn(basis[r])>; the imaginary part vanishes whenever fn
// preserves Hermiticity.
func HermitianSubspaceGenerator(fn SuperOperator, n int) (*mat.Dense, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil generator function: %w", ErrInvalidArgument)
	}
	basis, err := HermitianSubspaceBasis(n)
	if err != nil {
		return nil, err
	}

	dim := n * n
	gen := mat.NewDense(dim, dim, nil)
	for r := 0; r < dim; r++ {
		image, err := fn(basis[r])
		if err != nil {
			return nil, fmt.Errorf("generator row %d: %w", r, err)
		}
		for c := 0; c < dim; c++ {
			ip, err := InnerProduct(basis[c], image)
			if err != nil {
				return nil, fmt.Errorf("generator entry (%d,%d): %w", r, c, err)
			}
			gen.Set(r, c, real(ip))
		}
	}
	return gen, nil
}
