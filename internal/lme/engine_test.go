package lme_test

import (
	"math"
	"math/cmplx"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
)

func ground() *mat.CDense  { return operator.New(2, 2, []complex128{1, 0, 0, 0}) }
func excited() *mat.CDense { return operator.New(2, 2, []complex128{0, 0, 0, 1}) }
func sigmaX() *mat.CDense  { return operator.New(2, 2, []complex128{0, 1, 1, 0}) }
func lowering() *mat.CDense {
	return operator.New(2, 2, []complex128{0, 1, 0, 0})
}

type countingMetric struct {
	observed int
	resets   int
}

func (m *countingMetric) Name() string                     { return "count" }
func (m *countingMetric) Observe(_ *mat.CDense, _ float64) { m.observed++ }
func (m *countingMetric) Value() float64                   { return float64(m.observed) }
func (m *countingMetric) Reset()                           { m.observed = 0; m.resets++ }

var _ = Describe("Engine", func() {
	Describe("coherent Rabi oscillation", func() {
		It("records six Hermitian unit-trace samples with Euler", func() {
			traj, err := lme.Integrate(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(6))

			prev := -1.0
			for i := 0; i < traj.Len(); i++ {
				tm, rho := traj.At(i)
				Expect(tm).To(BeNumerically("~", 0.01*float64(i), 1e-12))
				Expect(operator.HermiticityDeviation(rho)).To(BeNumerically("<", 1e-12))
				tr, err := operator.Trace(rho)
				Expect(err).NotTo(HaveOccurred())
				Expect(cmplx.Abs(tr - 1)).To(BeNumerically("<", 1e-9))

				excitedPop := real(rho.At(1, 1))
				Expect(excitedPop).To(BeNumerically(">=", prev))
				prev = excitedPop
			}
			_, last := traj.At(traj.Len() - 1)
			Expect(real(last.At(1, 1))).To(BeNumerically(">", 0))
			Expect(real(last.At(0, 0))).To(BeNumerically("<", 1))
		})

		It("keeps the trace at 1 with an empty Lindblad set", func() {
			traj, err := lme.Integrate(ground(), sigmaX(), []*mat.CDense{}, 0.001, 2, lme.MethodRK4)
			Expect(err).NotTo(HaveOccurred())
			for _, rho := range traj.States() {
				tr, _ := operator.Trace(rho)
				Expect(cmplx.Abs(tr - 1)).To(BeNumerically("<", 1e-9))
			}
		})

		It("tracks cos^2 t more closely with RK4 than with Euler", func() {
			errAt := func(m lme.Method) float64 {
				traj, err := lme.Integrate(ground(), sigmaX(), nil, 0.01, 1, m)
				Expect(err).NotTo(HaveOccurred())
				tm, rho, err := traj.Last()
				Expect(err).NotTo(HaveOccurred())
				return math.Abs(real(rho.At(0, 0)) - math.Cos(tm)*math.Cos(tm))
			}
			rk4, euler := errAt(lme.MethodRK4), errAt(lme.MethodEuler)
			Expect(rk4).To(BeNumerically("<", 1e-7))
			Expect(euler).To(BeNumerically(">", rk4))
		})
	})

	Describe("amplitude damping", func() {
		It("drives the excited state to the ground state", func() {
			res, err := lme.New().Run(excited(), operator.Zeros(2, 2), []*mat.CDense{lowering()}, 0.01, 10, lme.MethodRK4)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(lme.Completed))
			Expect(res.Steps).To(Equal(res.Trajectory.Len() - 1))

			for _, i := range []int{10, 100, 500} {
				tm, rho := res.Trajectory.At(i)
				Expect(real(rho.At(0, 0))).To(BeNumerically("~", 1-math.Exp(-tm), 1e-8))
			}

			_, rho, _ := res.Trajectory.Last()
			diff, _ := operator.Sub(rho, ground())
			Expect(operator.MaxAbs(diff)).To(BeNumerically("<", 1e-4))
		})

		It("flags a coarse step as drift without failing", func() {
			var warned float64
			obs := lme.FuncObserver{Drift: func(d float64) { warned = d }}
			res, err := lme.New(lme.WithObserver(obs)).
				Run(excited(), operator.Zeros(2, 2), []*mat.CDense{lowering()}, 0.01, 0.1, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DriftExceeded).To(BeTrue())
			Expect(res.MaxDelta).To(BeNumerically("~", 0.01, 1e-12))
			Expect(warned).To(Equal(res.MaxDelta))
		})

		It("does not flag a fine step", func() {
			called := false
			obs := lme.FuncObserver{Drift: func(float64) { called = true }}
			res, err := lme.New(lme.WithObserver(obs)).
				Run(excited(), operator.Zeros(2, 2), []*mat.CDense{lowering()}, 1e-4, 1e-2, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DriftExceeded).To(BeFalse())
			Expect(called).To(BeFalse())
		})
	})

	Describe("entry validation", func() {
		nonHermitian := operator.New(2, 2, []complex128{1, 1, 0, 0})
		halfTrace := operator.New(2, 2, []complex128{0.25, 0, 0, 0.25})

		DescribeTable("fails before stepping",
			func(dop0, h *mat.CDense, lk []*mat.CDense, tstep, tf float64, method lme.Method, want error) {
				steps := 0
				obs := lme.FuncObserver{Step: func(int, float64, *mat.CDense) { steps++ }}
				res, err := lme.New(lme.WithObserver(obs)).Run(dop0, h, lk, tstep, tf, method)
				Expect(err).To(MatchError(want))
				Expect(res).To(BeNil())
				Expect(steps).To(BeZero())
			},
			Entry("zero tstep", ground(), sigmaX(), nil, 0.0, 1.0, lme.MethodEuler, lme.ErrInvalidArgument),
			Entry("negative tstep", ground(), sigmaX(), nil, -0.1, 1.0, lme.MethodEuler, lme.ErrInvalidArgument),
			Entry("NaN tstep", ground(), sigmaX(), nil, math.NaN(), 1.0, lme.MethodEuler, lme.ErrInvalidArgument),
			Entry("tf below tstep", ground(), sigmaX(), nil, 0.1, 0.05, lme.MethodEuler, lme.ErrInvalidArgument),
			Entry("infinite tf", ground(), sigmaX(), nil, 0.1, math.Inf(1), lme.MethodEuler, lme.ErrInvalidArgument),
			Entry("unknown method", ground(), sigmaX(), nil, 0.1, 1.0, lme.Method("verlet"), lme.ErrInvalidArgument),
			Entry("non-Hermitian state", nonHermitian, sigmaX(), nil, 0.1, 1.0, lme.MethodEuler, lme.ErrInvariantViolation),
			Entry("trace not one", halfTrace, sigmaX(), nil, 0.1, 1.0, lme.MethodEuler, lme.ErrInvariantViolation),
			Entry("non-Hermitian hamiltonian", ground(), nonHermitian, nil, 0.1, 1.0, lme.MethodEuler, lme.ErrInvariantViolation),
			Entry("nil state", nil, sigmaX(), nil, 0.1, 1.0, lme.MethodEuler, lme.ErrShape),
			Entry("hamiltonian order", ground(), operator.Identity(3), nil, 0.1, 1.0, lme.MethodEuler, lme.ErrShape),
			Entry("non-square lindblad", ground(), sigmaX(), []*mat.CDense{operator.Zeros(2, 3)}, 0.1, 1.0, lme.MethodEuler, lme.ErrShape),
			Entry("nil lindblad", ground(), sigmaX(), []*mat.CDense{nil}, 0.1, 1.0, lme.MethodEuler, lme.ErrShape),
		)

		It("accepts tf equal to tstep", func() {
			traj, err := lme.Integrate(ground(), sigmaX(), nil, 0.1, 0.1, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(2))
		})
	})

	Describe("custom derivative", func() {
		type controller struct{ calls int }

		It("passes the aux value and step time through unchanged", func() {
			ctrl := &controller{}
			var seen []float64
			fn := func(state, h *mat.CDense, lk []*mat.CDense, aux any, t float64) (*mat.CDense, error) {
				Expect(aux).To(BeIdenticalTo(ctrl))
				aux.(*controller).calls++
				seen = append(seen, t)
				return lme.Derivative(state, h, lk, nil, t)
			}

			eng := lme.New(lme.WithDerivative(fn), lme.WithAuxData(ctrl))
			res, err := eng.Run(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.calls).To(Equal(5))
			Expect(seen).To(HaveLen(5))
			for i, t := range seen {
				Expect(t).To(BeNumerically("~", 0.01*float64(i+1), 1e-12))
			}

			ctrl.calls = 0
			_, err = eng.Run(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodRK4)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.calls).To(Equal(4 * res.Steps))
		})

		It("matches the default engine when delegating to Derivative", func() {
			fn := func(state, h *mat.CDense, lk []*mat.CDense, aux any, t float64) (*mat.CDense, error) {
				return lme.Derivative(state, h, lk, aux, t)
			}
			a, err := lme.Integrate(excited(), sigmaX(), []*mat.CDense{lowering()}, 0.01, 0.5, lme.MethodRK4)
			Expect(err).NotTo(HaveOccurred())
			b, err := lme.Integrate(excited(), sigmaX(), []*mat.CDense{lowering()}, 0.01, 0.5, lme.MethodRK4, lme.WithDerivative(fn))
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Len()).To(Equal(a.Len()))
			_, ra, _ := a.Last()
			_, rb, _ := b.Last()
			Expect(mat.CEqual(ra, rb)).To(BeTrue())
		})

		It("fails with a numerical error on non-finite values", func() {
			fn := func(state, _ *mat.CDense, _ []*mat.CDense, _ any, _ float64) (*mat.CDense, error) {
				r, c := state.Dims()
				d := operator.Zeros(r, c)
				d.Set(0, 0, complex(math.NaN(), 0))
				return d, nil
			}
			res, err := lme.New(lme.WithDerivative(fn)).Run(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodEuler)
			Expect(err).To(MatchError(lme.ErrNumerical))

			var stepErr *lme.StepError
			Expect(err).To(BeAssignableToTypeOf(stepErr))
			stepErr = err.(*lme.StepError)
			Expect(stepErr.Step).To(Equal(1))
			Expect(stepErr.Time).To(BeNumerically("~", 0.01, 1e-12))

			Expect(res.Status).To(Equal(lme.Failed))
			Expect(res.Trajectory.Len()).To(Equal(1))
		})
	})

	Describe("side channels", func() {
		It("reports progress from the injected clock", func() {
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			calls := 0
			clock := func() time.Time {
				calls++
				return base.Add(time.Duration(calls) * 30 * time.Second)
			}

			var percents []float64
			var etas []time.Duration
			obs := lme.FuncObserver{Progress: func(p float64, eta time.Duration) {
				percents = append(percents, p)
				etas = append(etas, eta)
			}}
			_, err := lme.New(lme.WithClock(clock), lme.WithObserver(obs)).
				Run(ground(), sigmaX(), nil, 0.1, 1.0, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())

			Expect(percents).NotTo(BeEmpty())
			for i := 1; i < len(percents); i++ {
				Expect(percents[i]).To(BeNumerically(">", percents[i-1]))
			}
			Expect(percents[0]).To(BeNumerically("~", 20, 1e-9))
			for _, eta := range etas {
				Expect(eta).To(BeNumerically(">=", 0))
			}
		})

		It("disables progress with a non-positive interval", func() {
			reported := false
			obs := lme.FuncObserver{Progress: func(float64, time.Duration) { reported = true }}
			tick := time.Unix(0, 0)
			clock := func() time.Time {
				tick = tick.Add(time.Hour)
				return tick
			}
			_, err := lme.New(lme.WithClock(clock), lme.WithObserver(obs), lme.WithProgressInterval(0)).
				Run(ground(), sigmaX(), nil, 0.1, 1.0, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(reported).To(BeFalse())
		})

		It("feeds every recorded state to metrics", func() {
			m := &countingMetric{}
			res, err := lme.New(lme.WithMetric(m)).Run(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.resets).To(Equal(1))
			Expect(res.Metrics).To(HaveKeyWithValue("count", float64(res.Trajectory.Len())))
		})

		It("notifies every step to the observer", func() {
			var steps []int
			obs := lme.FuncObserver{Step: func(step int, _ float64, _ *mat.CDense) { steps = append(steps, step) }}
			_, err := lme.New(lme.WithObserver(obs)).Run(ground(), sigmaX(), nil, 0.01, 0.05, lme.MethodEuler)
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal([]int{0, 1, 2, 3, 4, 5}))
		})
	})

	It("names statuses", func() {
		Expect(lme.NotStarted.String()).To(Equal("not_started"))
		Expect(lme.Completed.String()).To(Equal("completed"))
		Expect(lme.Status(9).String()).To(Equal("status(9)"))
	})
})
