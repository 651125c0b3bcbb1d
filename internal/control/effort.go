package control

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Effort is an lme.Metric averaging |u| of a Feedback over recorded states.
type Effort struct {
	name     string
	feedback *Feedback
	sum      float64
	samples  int
}

func NewEffort(fb *Feedback) *Effort {
	return &Effort{
		name:     "control_effort",
		feedback: fb,
	}
}

func (e *Effort) Name() string {
	return e.name
}

func (e *Effort) Observe(_ *mat.CDense, _ float64) {
	e.sum += math.Abs(e.feedback.Amplitude())
	e.samples++
}

func (e *Effort) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Effort) Reset() {
	e.sum = 0
	e.samples = 0
}

// TrackingError is an lme.Metric averaging |target - <Observable>| over
// recorded states.
type TrackingError struct {
	name     string
	feedback *Feedback
	sum      float64
	samples  int
}

func NewTrackingError(fb *Feedback) *TrackingError {
	return &TrackingError{
		name:     "tracking_error",
		feedback: fb,
	}
}

func (e *TrackingError) Name() string {
	return e.name
}

func (e *TrackingError) Observe(state *mat.CDense, _ float64) {
	value, err := e.feedback.Expectation(state)
	if err != nil {
		return
	}
	e.sum += math.Abs(e.feedback.PID.Target - value)
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.samples = 0
}
