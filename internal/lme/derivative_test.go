package lme_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
)

var _ = Describe("Derivative", func() {
	var (
		rho *mat.CDense
		h   *mat.CDense
	)

	BeforeEach(func() {
		rho = operator.New(2, 2, []complex128{0.75, 0.25 - 0.1i, 0.25 + 0.1i, 0.25})
		h = operator.New(2, 2, []complex128{1, 0.5i, -0.5i, -1})
	})

	It("returns a zero dissipator for an empty operator set", func() {
		d, err := lme.LindbladianDt(rho, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(operator.MaxAbs(d)).To(BeZero())
	})

	It("reduces to the coherent term without Lindblad operators", func() {
		full, err := lme.Derivative(rho, h, nil, nil, 0)
		Expect(err).NotTo(HaveOccurred())
		coherent, err := lme.HamiltonianDt(rho, h)
		Expect(err).NotTo(HaveOccurred())
		diff, err := operator.Sub(full, coherent)
		Expect(err).NotTo(HaveOccurred())
		Expect(operator.MaxAbs(diff)).To(BeZero())
	})

	It("produces a traceless Hermitian derivative", func() {
		l := operator.New(2, 2, []complex128{0, 1, 0, 0})
		d, err := lme.Derivative(rho, h, []*mat.CDense{l}, nil, 0)
		Expect(err).NotTo(HaveOccurred())
		tr, err := operator.Trace(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(real(tr)).To(BeNumerically("~", 0, 1e-12))
		Expect(imag(tr)).To(BeNumerically("~", 0, 1e-12))
		Expect(operator.HermiticityDeviation(d)).To(BeNumerically("<", 1e-12))
	})

	It("moves population from the excited to the ground state", func() {
		excited := operator.New(2, 2, []complex128{0, 0, 0, 1})
		l := operator.New(2, 2, []complex128{0, 1, 0, 0})
		d, err := lme.LindbladianDt(excited, []*mat.CDense{l})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.At(0, 0)).To(Equal(complex(1, 0)))
		Expect(d.At(1, 1)).To(Equal(complex(-1, 0)))
	})

	It("sums the contributions of several operators", func() {
		l1 := operator.New(2, 2, []complex128{0, 1, 0, 0})
		l2 := operator.New(2, 2, []complex128{1, 0, 0, -1})
		both, err := lme.LindbladianDt(rho, []*mat.CDense{l1, l2})
		Expect(err).NotTo(HaveOccurred())
		d1, _ := lme.LindbladianDt(rho, []*mat.CDense{l1})
		d2, _ := lme.LindbladianDt(rho, []*mat.CDense{l2})
		sum, _ := operator.Add(d1, d2)
		diff, _ := operator.Sub(both, sum)
		Expect(operator.MaxAbs(diff)).To(BeNumerically("<", 1e-15))
	})

	It("rejects operators of the wrong order", func() {
		_, err := lme.LindbladianDt(rho, []*mat.CDense{operator.Identity(3)})
		Expect(err).To(MatchError(lme.ErrShape))
		_, err = lme.HamiltonianDt(rho, operator.Identity(3))
		Expect(err).To(MatchError(lme.ErrShape))
	})

	It("exposes the derivative as a superoperator", func() {
		l := operator.New(2, 2, []complex128{0, 1, 0, 0})
		gen, err := operator.HermitianSubspaceGenerator(lme.Superoperator(h, []*mat.CDense{l}), 2)
		Expect(err).NotTo(HaveOccurred())
		r, c := gen.Dims()
		Expect(r).To(Equal(4))
		Expect(c).To(Equal(4))
		// trace preservation: the E00 and E11 columns of every row sum to zero
		for i := 0; i < 4; i++ {
			Expect(gen.At(i, 0) + gen.At(i, 3)).To(BeNumerically("~", 0, 1e-12))
		}
	})
})

var _ = Describe("Steppers", func() {
	It("parses method names", func() {
		m, err := lme.ParseMethod(" RK4 ")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(lme.MethodRK4))

		_, err = lme.ParseMethod("verlet")
		Expect(err).To(MatchError(lme.ErrInvalidArgument))
		Expect(lme.Methods()).To(ConsistOf(lme.MethodEuler, lme.MethodRK4))
	})

	It("evaluates every RK4 stage at the step time", func() {
		var times []float64
		fn := func(state, _ *mat.CDense, _ []*mat.CDense, _ any, t float64) (*mat.CDense, error) {
			times = append(times, t)
			return operator.Zeros(2, 2), nil
		}
		rho := operator.New(2, 2, []complex128{1, 0, 0, 0})
		_, err := lme.NewRK4().Delta(fn, nil, 0.3, rho, operator.Zeros(2, 2), nil, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(times).To(Equal([]float64{0.3, 0.3, 0.3, 0.3}))
	})

	It("applies the 1/6 1/3 1/3 1/6 weights", func() {
		// d rho/dt = rho: one RK4 step multiplies by 1 + h + h^2/2 + h^3/6 + h^4/24
		fn := func(state, _ *mat.CDense, _ []*mat.CDense, _ any, _ float64) (*mat.CDense, error) {
			return operator.Clone(state), nil
		}
		rho := operator.New(1, 1, []complex128{1})
		const h = 0.1
		delta, err := lme.NewRK4().Delta(fn, nil, 0, rho, operator.Zeros(1, 1), nil, h)
		Expect(err).NotTo(HaveOccurred())
		want := h + h*h/2 + h*h*h/6 + h*h*h*h/24
		Expect(real(delta.At(0, 0))).To(BeNumerically("~", want, 1e-15))

		delta, err = lme.NewEuler().Delta(fn, nil, 0, rho, operator.Zeros(1, 1), nil, h)
		Expect(err).NotTo(HaveOccurred())
		Expect(real(delta.At(0, 0))).To(BeNumerically("~", h, 1e-15))
	})

	It("rejects a derivative of the wrong shape", func() {
		fn := func(_, _ *mat.CDense, _ []*mat.CDense, _ any, _ float64) (*mat.CDense, error) {
			return nil, nil
		}
		rho := operator.New(2, 2, []complex128{1, 0, 0, 0})
		_, err := lme.NewEuler().Delta(fn, nil, 0, rho, operator.Zeros(2, 2), nil, 0.1)
		Expect(err).To(MatchError(lme.ErrShape))
		_, err = lme.NewRK4().Delta(fn, nil, 0, rho, operator.Zeros(2, 2), nil, 0.1)
		Expect(err).To(MatchError(lme.ErrShape))
	})
})
