package metrics

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
)

// TraceDrift records the largest |1 - tr rho| seen over a run.
type TraceDrift struct {
	name     string
	maxDrift float64
}

func NewTraceDrift() *TraceDrift {
	return &TraceDrift{name: "trace_drift"}
}

func (d *TraceDrift) Name() string { return d.name }

func (d *TraceDrift) Observe(state *mat.CDense, t float64) {
	tr, err := operator.Trace(state)
	if err != nil {
		d.maxDrift = math.Inf(1)
		return
	}
	d.maxDrift = math.Max(d.maxDrift, cmplx.Abs(1-tr))
}

func (d *TraceDrift) Value() float64 { return d.maxDrift }

func (d *TraceDrift) Reset() { d.maxDrift = 0 }

// HermiticityDrift records the largest max|rho_ij - conj(rho_ji)| seen
// over a run.
type HermiticityDrift struct {
	name     string
	maxDrift float64
}

func NewHermiticityDrift() *HermiticityDrift {
	return &HermiticityDrift{name: "hermiticity_drift"}
}

func (d *HermiticityDrift) Name() string { return d.name }

func (d *HermiticityDrift) Observe(state *mat.CDense, t float64) {
	d.maxDrift = math.Max(d.maxDrift, operator.HermiticityDeviation(state))
}

func (d *HermiticityDrift) Value() float64 { return d.maxDrift }

func (d *HermiticityDrift) Reset() { d.maxDrift = 0 }
