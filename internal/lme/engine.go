package lme

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/operator"
	"github.com/san-kum/qdsim/internal/signal"
)

const (
	// TraceTolerance bounds |1 - tr rho0| for a valid initial state.
	TraceTolerance = 1e-9

	// DriftThreshold is the largest element-wise increment tolerated before
	// a run is flagged as possibly under-resolved.
	DriftThreshold = 1e-3

	// DefaultProgressInterval is the wall-clock spacing of progress reports.
	DefaultProgressInterval = 20 * time.Second

	trajectoryName = "Density op. evolution"
)

// Status is the lifecycle state of a run.
type Status int

const (
	NotStarted Status = iota
	Stepping
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Stepping:
		return "stepping"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of a completed run.
type Result struct {
	Trajectory *signal.Trajectory
	Method     Method
	Status     Status
	Steps      int
	// MaxDelta is the largest element magnitude of any single increment.
	MaxDelta      float64
	DriftExceeded bool
	Metrics       map[string]float64
	Elapsed       time.Duration

	started time.Time
}

// Engine integrates master equations with a fixed step.
type Engine struct {
	derivative       DerivativeFunc
	aux              any
	observer         Observer
	log              zerolog.Logger
	metrics          []Metric
	progressInterval time.Duration
	now              func() time.Time
}

type Option func(*Engine)

// WithDerivative replaces the default derivative.
func WithDerivative(fn DerivativeFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.derivative = fn
		}
	}
}

// WithAuxData sets the value passed through to the derivative function.
func WithAuxData(aux any) Option {
	return func(e *Engine) { e.aux = aux }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithMetric(m Metric) Option {
	return func(e *Engine) { e.AddMetric(m) }
}

// WithProgressInterval sets the wall-clock spacing of progress reports;
// a non-positive interval disables them.
func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) { e.progressInterval = d }
}

// WithClock replaces time.Now for progress reporting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		derivative:       Derivative,
		observer:         NopObserver{},
		log:              zerolog.Nop(),
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) AddMetric(m Metric) {
	if m != nil {
		e.metrics = append(e.metrics, m)
	}
}

// Integrate runs a default-configured engine with opts and returns the
// trajectory.
func Integrate(dop0, h *mat.CDense, lk []*mat.CDense, tstep, tf float64, method Method, opts ...Option) (*signal.Trajectory, error) {
	res, err := New(opts...).Run(dop0, h, lk, tstep, tf, method)
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}

// Run integrates from dop0 at t=0 up to tf. The initial state is recorded
// at t=0, then one sample per step while t <= tf, with t accumulated by
// repeated addition of tstep.
//
// Validation failures return a nil Result before any stepping. A failure
// while stepping returns the partial Result in the Failed status together
// with a *StepError. A drift above DriftThreshold is reported but does not
// fail the run.
func (e *Engine) Run(dop0, h *mat.CDense, lk []*mat.CDense, tstep, tf float64, method Method) (*Result, error) {
	stepper, err := validate(dop0, h, lk, tstep, tf, method)
	if err != nil {
		return nil, err
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	res := &Result{
		Trajectory: signal.New(trajectoryName),
		Method:     method,
		Status:     Stepping,
		Metrics:    make(map[string]float64),
	}

	start := e.now()
	res.started = start
	lastReport := start
	e.log.Debug().
		Str("method", string(method)).
		Float64("tstep", tstep).
		Float64("tf", tf).
		Int("order", rows(dop0)).
		Int("lindblad_ops", len(lk)).
		Msg("integration started")

	t := 0.0
	dop := operator.Clone(dop0)
	if err := e.record(res, 0, t, dop); err != nil {
		return e.fail(res, 0, t, err)
	}
	t += tstep

	for t <= tf {
		delta, err := stepper.Delta(e.derivative, e.aux, t, dop, h, lk, tstep)
		if err != nil {
			return e.fail(res, res.Steps+1, t, err)
		}
		if d := operator.MaxAbs(delta); d > res.MaxDelta {
			res.MaxDelta = d
		}

		next, err := operator.Add(dop, delta)
		if err != nil {
			return e.fail(res, res.Steps+1, t, err)
		}
		if !operator.IsFinite(next) {
			return e.fail(res, res.Steps+1, t, ErrNumerical)
		}

		res.Steps++
		if err := e.record(res, res.Steps, t, next); err != nil {
			return e.fail(res, res.Steps, t, err)
		}
		dop = next
		t += tstep

		if e.progressInterval > 0 {
			if now := e.now(); now.Sub(lastReport) > e.progressInterval {
				lastReport = now
				e.observer.OnProgress(progress(now.Sub(start), t, tf))
			}
		}
	}

	if res.MaxDelta > DriftThreshold {
		res.DriftExceeded = true
		e.log.Warn().Float64("max_delta", res.MaxDelta).Msg("drift threshold exceeded")
		e.observer.OnDriftWarning(res.MaxDelta)
	}

	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	res.Status = Completed
	res.Elapsed = e.now().Sub(start)
	e.log.Debug().
		Int("steps", res.Steps).
		Float64("max_delta", res.MaxDelta).
		Dur("elapsed", res.Elapsed).
		Msg("integration completed")

	return res, nil
}

func (e *Engine) record(res *Result, step int, t float64, state *mat.CDense) error {
	if err := res.Trajectory.Append(t, state); err != nil {
		return err
	}
	for _, m := range e.metrics {
		m.Observe(state, t)
	}
	e.observer.OnStep(step, t, state)
	return nil
}

func (e *Engine) fail(res *Result, step int, t float64, err error) (*Result, error) {
	res.Status = Failed
	res.Elapsed = e.now().Sub(res.started)
	e.log.Error().Err(err).Int("step", step).Float64("t", t).Msg("integration failed")
	return res, &StepError{Step: step, Time: t, Wrapped: err}
}

// progress returns the percent of tf reached and the
// remaining time extrapolated from the elapsed wall-clock time.
func progress(elapsed time.Duration, t, tf float64) (float64, time.Duration) {
	percent := t / tf * 100
	eta := time.Duration(float64(elapsed) / t * (tf - t))
	if eta < 0 {
		eta = 0
	}
	return percent, eta
}

func validate(dop0, h *mat.CDense, lk []*mat.CDense, tstep, tf float64, method Method) (Stepper, error) {
	if !operator.IsSquare(dop0) {
		return nil, fmt.Errorf("initial state must be square: %w", ErrShape)
	}
	if !operator.IsSquare(h) || !operator.SameShape(dop0, h) {
		return nil, fmt.Errorf("hamiltonian must be square of order %d: %w", rows(dop0), ErrShape)
	}
	for k, l := range lk {
		if !operator.IsSquare(l) || !operator.SameShape(dop0, l) {
			return nil, fmt.Errorf("lindblad operator %d must be square of order %d: %w", k, rows(dop0), ErrShape)
		}
	}

	if !operator.IsHermitian(dop0) {
		return nil, fmt.Errorf("initial state is not Hermitian: %w", ErrInvariantViolation)
	}
	tr, _ := operator.Trace(dop0)
	if cmplx.Abs(1-tr) >= TraceTolerance {
		return nil, fmt.Errorf("initial state trace %v is not 1: %w", tr, ErrInvariantViolation)
	}
	if !operator.IsHermitian(h) {
		return nil, fmt.Errorf("hamiltonian is not Hermitian: %w", ErrInvariantViolation)
	}

	if !(tstep > 0) || math.IsInf(tstep, 0) {
		return nil, fmt.Errorf("tstep must be positive, got %g: %w", tstep, ErrInvalidArgument)
	}
	if !(tf >= tstep) || math.IsInf(tf, 0) {
		return nil, fmt.Errorf("tf must be finite and >= tstep, got tf=%g tstep=%g: %w", tf, tstep, ErrInvalidArgument)
	}

	return NewStepper(method)
}

func rows(m *mat.CDense) int {
	if operator.IsEmpty(m) {
		return 0
	}
	r, _ := m.Dims()
	return r
}
