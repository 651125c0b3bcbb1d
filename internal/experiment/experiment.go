package experiment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/config"
	"github.com/san-kum/qdsim/internal/control"
	"github.com/san-kum/qdsim/internal/fme"
	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
)

// Experiment is one configured integration. Run may be called repeatedly;
// every call starts from fresh controller and metric state.
type Experiment struct {
	cfg     *config.Config
	ops     *config.Operators
	method  lme.Method
	opts    []lme.Option
	metrics []func() lme.Metric
}

func New(cfg *config.Config, opts ...lme.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ops, err := cfg.Operators()
	if err != nil {
		return nil, err
	}
	method, err := lme.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:    cfg,
		ops:    ops,
		method: method,
		opts:   opts,
	}, nil
}

// Setup registers metric factories; each Run gets new instances.
func (e *Experiment) Setup(metrics ...func() lme.Metric) {
	e.metrics = append(e.metrics, metrics...)
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

func (e *Experiment) Run(ctx context.Context) (*lme.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append([]lme.Option(nil), e.opts...)
	for _, newMetric := range e.metrics {
		opts = append(opts, lme.WithMetric(newMetric()))
	}

	if c := e.cfg.Control; c != nil {
		pid := control.NewPID(c.Kp, c.Ki, c.Kd, c.Target)
		fb := control.NewFeedback(e.ops.Observable, e.ops.Drive, pid)
		fb.MaxAmplitude = c.MaxAmplitude
		n, _ := e.ops.Initial.Dims()
		if err := fb.Validate(n); err != nil {
			return nil, err
		}
		opts = append(opts,
			lme.WithDerivative(control.Derivative),
			lme.WithAuxData(fb),
			lme.WithMetric(control.NewEffort(fb)),
			lme.WithMetric(control.NewTrackingError(fb)),
		)
	}

	eng := lme.New(opts...)
	switch e.cfg.Equation {
	case config.EquationFME:
		return fme.Run(eng, e.ops.Initial, e.ops.Hamiltonian, e.ops.Measurement, e.ops.Feedback,
			e.cfg.TStep, e.cfg.TF, e.method)
	case config.EquationLME:
		return eng.Run(e.ops.Initial, e.ops.Hamiltonian, e.ops.Lindblad, e.cfg.TStep, e.cfg.TF, e.method)
	default:
		return nil, fmt.Errorf("experiment: unknown equation %q", e.cfg.Equation)
	}
}

// Generator returns the real matrix of the free generator on the
// Hermitian subspace. FME configurations are mapped to their LME
// operators first; control terms are not included.
func (e *Experiment) Generator() (*mat.Dense, error) {
	h, lk := e.ops.Hamiltonian, e.ops.Lindblad
	if e.cfg.Equation == config.EquationFME {
		hLME, lLME, err := fme.DeriveLMEOperators(e.ops.Hamiltonian, e.ops.Measurement, e.ops.Feedback)
		if err != nil {
			return nil, err
		}
		h, lk = hLME, []*mat.CDense{lLME}
	}
	n, _ := e.ops.Initial.Dims()
	return operator.HermitianSubspaceGenerator(lme.Superoperator(h, lk), n)
}
