package lme

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Observer receives best-effort notifications from a running integration.
// Implementations must not retain or mutate state.
type Observer interface {
	OnStep(step int, t float64, state *mat.CDense)
	OnProgress(percent float64, eta time.Duration)
	OnDriftWarning(maxDelta float64)
}

// Metric accumulates a scalar over every recorded state of a run.
type Metric interface {
	Name() string
	Observe(state *mat.CDense, t float64)
	Value() float64
	Reset()
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnStep(int, float64, *mat.CDense)  {}
func (NopObserver) OnProgress(float64, time.Duration) {}
func (NopObserver) OnDriftWarning(float64)            {}

// LogObserver reports progress and drift warnings through zerolog.
type LogObserver struct {
	log zerolog.Logger
}

func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnStep(step int, t float64, _ *mat.CDense) {
	o.log.Trace().Int("step", step).Float64("t", t).Msg("step")
}

func (o *LogObserver) OnProgress(percent float64, eta time.Duration) {
	o.log.Info().
		Float64("percent", percent).
		Str("eta", eta.Round(time.Second).String()).
		Msg("integration progress")
}

func (o *LogObserver) OnDriftWarning(maxDelta float64) {
	o.log.Warn().
		Float64("max_delta", maxDelta).
		Float64("threshold", DriftThreshold).
		Msg("state increment exceeded drift threshold, step may be too large")
}

// FuncObserver adapts plain callbacks to Observer; nil fields are skipped.
type FuncObserver struct {
	Step     func(step int, t float64, state *mat.CDense)
	Progress func(percent float64, eta time.Duration)
	Drift    func(maxDelta float64)
}

func (f FuncObserver) OnStep(step int, t float64, state *mat.CDense) {
	if f.Step != nil {
		f.Step(step, t, state)
	}
}

func (f FuncObserver) OnProgress(percent float64, eta time.Duration) {
	if f.Progress != nil {
		f.Progress(percent, eta)
	}
}

func (f FuncObserver) OnDriftWarning(maxDelta float64) {
	if f.Drift != nil {
		f.Drift(maxDelta)
	}
}
