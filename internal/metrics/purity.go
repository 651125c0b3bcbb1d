package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// Purity reports tr(rho^2) of the last observed state: 1 for a pure state,
// 1/n for the maximally mixed one.
type Purity struct {
	name    string
	last    float64
	samples int
}

func NewPurity() *Purity {
	return &Purity{name: "purity"}
}

func (p *Purity) Name() string { return p.name }

func (p *Purity) Observe(state *mat.CDense, t float64) {
	// tr(rho^2) = <rho, rho> for Hermitian rho
	ip, err := operator.InnerProduct(state, state)
	if err != nil {
		return
	}
	p.last = real(ip)
	p.samples++
}

func (p *Purity) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.last
}

func (p *Purity) Reset() {
	p.last = 0
	p.samples = 0
}
