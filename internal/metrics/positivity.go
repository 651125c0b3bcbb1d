package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// Positivity records the smallest eigenvalue seen over a run. A negative
// value means the integrated state left the set of density operators.
type Positivity struct {
	name    string
	minEig  float64
	samples int
}

func NewPositivity() *Positivity {
	return &Positivity{name: "min_eigenvalue", minEig: math.Inf(1)}
}

func (p *Positivity) Name() string { return p.name }

func (p *Positivity) Observe(state *mat.CDense, t float64) {
	eig, ok := HermitianEigenvalues(state)
	if !ok || len(eig) == 0 {
		return
	}
	p.minEig = math.Min(p.minEig, eig[0])
	p.samples++
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.minEig
}

func (p *Positivity) Reset() {
	p.minEig = math.Inf(1)
	p.samples = 0
}

// HermitianEigenvalues returns the eigenvalues of the Hermitian part of a
// in ascending order. The n x n complex matrix A + iB is embedded in the
// 2n x 2n real symmetric [[A, -B], [B, A]], whose spectrum is that of
// A + iB with every eigenvalue doubled.
func HermitianEigenvalues(a *mat.CDense) ([]float64, bool) {
	if !operator.IsSquare(a) {
		return nil, false
	}
	n, _ := a.Dims()
	emb := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Hermitian part (a + a^H)/2
			v := (a.At(i, j) + conjugate(a.At(j, i))) / 2
			re, im := real(v), imag(v)
			emb.SetSym(i, j, re)
			emb.SetSym(n+i, n+j, re)
			emb.SetSym(i, n+j, -im)
			emb.SetSym(j, n+i, im)
		}
	}

	var es mat.EigenSym
	if !es.Factorize(emb, false) {
		return nil, false
	}
	all := es.Values(nil)
	out := make([]float64, n)
	for i := range out {
		out[i] = all[2*i]
	}
	return out, true
}

func conjugate(v complex128) complex128 {
	return complex(real(v), -imag(v))
}
