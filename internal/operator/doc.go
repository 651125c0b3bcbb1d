// Package operator implements the dense complex operator algebra used by
// the master-equation integrators.
//
// Matrices are gonum [mat.CDense] values. The package provides:
//
//   - [InnerProduct], [Norm]: Hilbert-Schmidt inner product tr(A^H B) and its norm
//   - [Commutator], [Anticommutator]: [A,B] and {A,B}
//   - [HermitianSubspaceBasis]: orthonormal basis of the real space of
//     n x n Hermitian matrices
//   - [HermitianSubspaceGenerator]: real n^2 x n^2 matrix of a linear map
//     on Hermitian matrices, expressed in that basis
//
// All functions are pure: operands are never modified and every result is
// freshly allocated.
//
// # Example
//
//	sx := operator.New(2, 2, []complex128{0, 1, 1, 0})
//	sz := operator.New(2, 2, []complex128{1, 0, 0, -1})
//	c, _ := operator.Commutator(sx, sz) // -2i sigma_y
package operator
