package engine_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/engine"
	"github.com/san-kum/rdsim/internal/integrators"
	"github.com/san-kum/rdsim/internal/native"
	"github.com/san-kum/rdsim/internal/rdsys"
)

func mustODE(method string) engine.Engine {
	e, err := engine.NewODEEngine(method)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func runToEnd(e engine.Engine) {
	running, err := e.Run(time.Minute)
	Expect(err).NotTo(HaveOccurred())
	Expect(running).To(BeFalse())
}

var _ = Describe("lifecycle", func() {
	var e engine.Engine

	BeforeEach(func() {
		e = engine.NewKineticsEngine()
	})

	It("rejects use before setup", func() {
		Expect(e.Status()).To(Equal(engine.Uninitialized))
		_, err := e.Iterate()
		Expect(err).To(MatchError(engine.ErrNotRunning))
		Expect(e.Sample()).To(MatchError(engine.ErrNotRunning))
		_, err = e.Output()
		Expect(err).To(MatchError(engine.ErrNotRunning))
		Expect(e.Progress()).To(BeZero())
	})

	It("moves from running to complete", func() {
		Expect(e.Setup(script(oneCell(10, nil), 0.1, 0, 1))).To(Succeed())
		Expect(e.Status()).To(Equal(engine.Running))
		Expect(e.Setup(script(oneCell(10, nil), 0.1, 0, 1))).To(MatchError(engine.ErrAlreadySetup))

		_, err := e.Output()
		Expect(err).To(MatchError(engine.ErrStillRunning))
		Expect(e.Sample()).To(Succeed())

		running, err := e.IterateN(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(running).To(BeTrue())
		Expect(e.Progress()).To(BeNumerically("~", 30, 1e-9))

		runToEnd(e)
		Expect(e.Status()).To(Equal(engine.Complete))
		Expect(e.Progress()).To(Equal(100.0))
		_, err = e.Iterate()
		Expect(err).To(MatchError(engine.ErrNotRunning))

		tr, err := e.Output()
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Validate()).To(Succeed())
		Expect(tr.NSamples()).To(Equal(3))
		Expect(tr.Incomplete).To(BeFalse())
		Expect(tr.Engine).To(Equal("kinetics"))

		Expect(e.Finalize()).To(Succeed())
		Expect(e.Finalize()).To(MatchError(engine.ErrFinalized))
		_, err = e.Output()
		Expect(err).To(MatchError(engine.ErrFinalized))
		_, err = e.Iterate()
		Expect(err).To(MatchError(engine.ErrFinalized))
	})

	It("rejects invalid scripts at setup", func() {
		s := script(oneCell(10, nil), 0.1, 0, 1)
		s.TMax = 0
		Expect(e.Setup(s)).To(MatchError(rdsys.ErrTiming))
		Expect(e.Status()).To(Equal(engine.Uninitialized))
	})
})

var _ = Describe("engines", func() {
	DescribeTable("integrate first order decay",
		func(newEngine func() engine.Engine, tol float64) {
			e := newEngine()
			Expect(e.Setup(script(oneCell(1000, map[string]float64{"A ->": 1}), 1e-3, 0, 0.5, 1))).To(Succeed())
			runToEnd(e)

			tr, err := e.Output()
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.T).To(HaveLen(3))
			for k, want := range []float64{0, 0.5, 1} {
				Expect(tr.T[k]).To(BeNumerically(">=", want))
				Expect(tr.Data[k]).To(BeNumerically("~", 1000*math.Exp(-tr.T[k]), tol))
			}
		},
		Entry("kinetics", func() engine.Engine { return engine.NewKineticsEngine() }, 1.5),
		Entry("ode-euler", func() engine.Engine { return mustODE("euler") }, 1.5),
		Entry("ode-rk4", func() engine.Engine { return mustODE("rk4") }, 1e-6),
		Entry("ode-rk45", func() engine.Engine { return mustODE("rk45") }, 0.5),
		Entry("native euler", func() engine.Engine { return engine.NewNativeEngine("euler") }, 1.5),
	)

	DescribeTable("sample once per requested time",
		func(newEngine func() engine.Engine) {
			e := newEngine()
			Expect(e.Setup(script(oneCell(5, nil), 0.7, 0, 100, 1500))).To(Succeed())
			runToEnd(e)

			tr, err := e.Output()
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.T).To(HaveLen(3))
			for k, want := range []float64{0, 100, 1500} {
				Expect(tr.T[k]).To(BeNumerically(">=", want))
				Expect(tr.T[k]).To(BeNumerically("<", want+0.7+1e-9))
				if k > 0 {
					Expect(tr.T[k]).To(BeNumerically(">", tr.T[k-1]))
				}
			}
		},
		Entry("kinetics", func() engine.Engine { return engine.NewKineticsEngine() }),
		Entry("ode-rk4", func() engine.Engine { return mustODE("rk4") }),
		Entry("ode-rk45", func() engine.Engine { return mustODE("rk45") }),
		Entry("native euler", func() engine.Engine { return engine.NewNativeEngine("euler") }),
	)

	It("keeps adaptive steps within the requested times", func() {
		e := mustODE("rk45")
		Expect(e.Setup(script(oneCell(1000, map[string]float64{"A ->": 1e-3}), 0.7, 0, 100, 1500))).To(Succeed())
		runToEnd(e)

		tr, err := e.Output()
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.T).To(Equal([]float64{0, 100, 1500}))
		for k, t := range tr.T {
			Expect(tr.Data[k]).To(BeNumerically("~", 1000*math.Exp(-1e-3*t), 0.5))
		}
	})

	DescribeTable("hold chemostated quantities",
		func(newEngine func() engine.Engine) {
			sys := oneCell(1000, map[string]float64{"A ->": 1})
			sys.Chemostats[0] = true
			e := newEngine()
			Expect(e.Setup(script(sys, 1e-2, 0, 1))).To(Succeed())
			runToEnd(e)

			tr, err := e.Output()
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Data[tr.StateSize()*(tr.NSamples()-1)]).To(Equal(1000.0))
		},
		Entry("kinetics", func() engine.Engine { return engine.NewKineticsEngine() }),
		Entry("ode-rk45", func() engine.Engine { return mustODE("rk45") }),
		Entry("native tauleap", func() engine.Engine { return engine.NewNativeEngine("tauleap") }),
	)

	It("runs the stochastic options to completion", func() {
		for _, option := range []string{"gillespie", "tauleap"} {
			e := engine.NewNativeEngine(option)
			Expect(e.Setup(script(oneCell(200, map[string]float64{"A ->": 1}), 1e-3, 0, 0.5, 1))).To(Succeed())
			runToEnd(e)
			tr, err := e.Output()
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.T).To(HaveLen(3), option)
			Expect(tr.Data[0]).To(Equal(200.0), option)
			Expect(tr.Option).To(Equal(option))
		}
	})
})

var _ = Describe("failures", func() {
	It("marks a diverging ODE run as failed and keeps partial output", func() {
		e := mustODE("euler")
		Expect(e.Setup(script(oneCell(1000, map[string]float64{"2 A -> 3 A": 1}), 0.1, 0, 10))).To(Succeed())

		running, err := e.Run(time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(running).To(BeFalse())
		Expect(e.Status()).To(Equal(engine.Failed))
		Expect(e.Err()).To(MatchError(dynamo.ErrRuntime))
		Expect(e.Err()).To(MatchError(dynamo.ErrInvalidState))

		tr, err := e.Output()
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Incomplete).To(BeTrue())
		Expect(tr.T).To(Equal([]float64{0}))
		Expect(tr.Data).To(Equal([]float64{1000}))

		_, err = e.Iterate()
		Expect(err).To(MatchError(engine.ErrNotRunning))
	})

	It("reports unknown native options as configuration errors", func() {
		e := engine.NewNativeEngine("euler_adapt")
		err := e.Setup(script(oneCell(1, nil), 0.1, 0, 1))
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
		Expect(err).To(MatchError(native.StatusInvalidOption))
		Expect(e.Status()).To(Equal(engine.Uninitialized))
	})

	It("rejects unknown integration methods", func() {
		_, err := engine.NewODEEngine("verlet")
		Expect(err).To(MatchError(integrators.ErrUnknownMethod))
	})
})
