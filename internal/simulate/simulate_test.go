package simulate_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdsim/internal/coarsegrain"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/engine"
	"github.com/san-kum/rdsim/internal/logging"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/simulate"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

func decayScript(n float64) *rdsys.Script {
	r, err := network.NewReaction("A ->", network.Scalar(1.0), network.Scalar(0.0))
	Expect(err).NotTo(HaveOccurred())
	net := network.MustNew([]network.Species{{Label: "A", Density: network.Scalar(n)}}, []network.Reaction{r}, []string{""})
	grid, err := space.NewGrid(1, 1, 1, 1, nil, space.AllReflecting())
	Expect(err).NotTo(HaveOccurred())
	sys, err := rdsys.NewSystem(net, grid, units.DefaultSystem())
	Expect(err).NotTo(HaveOccurred())
	s := rdsys.NewScript(sys, []float64{0, 0.5, 1})
	s.TimeStep = 1e-2
	s.Seed = 100
	return s
}

// diffusionScript is a 4x4 grid where only the first cell holds A.
func diffusionScript() (*rdsys.Script, []int) {
	net := network.MustNew([]network.Species{{Label: "A", D: network.Scalar(1.0)}}, nil, []string{""})
	grid, err := space.NewGrid(4, 4, 1, 1, nil, space.AllReflecting())
	Expect(err).NotTo(HaveOccurred())
	sys, err := rdsys.NewSystem(net, grid, units.DefaultSystem())
	Expect(err).NotTo(HaveOccurred())
	sys.State[0] = 160

	m := make([]int, grid.Size())
	for i := range m {
		x, y, _, _ := grid.Coords(i)
		m[i] = x/2 + 2*(y/2)
	}
	s := rdsys.NewScript(sys, []float64{0, 0.5, 1})
	s.TimeStep = 1e-2
	return s, m
}

var _ = Describe("SimulateScript", func() {
	It("runs a script to completion and reports progress", func() {
		var progress []float64
		var logs bytes.Buffer
		tr, err := simulate.SimulateScript(context.Background(), decayScript(1000), engine.NewKineticsEngine(), nil, simulate.Options{
			Progress: func(p float64) { progress = append(progress, p) },
			Logger:   logging.NewLogger("info", &logs),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.T).To(HaveLen(3))
		Expect(tr.Incomplete).To(BeFalse())
		Expect(progress).NotTo(BeEmpty())
		Expect(progress[len(progress)-1]).To(Equal(100.0))
		Expect(logs.String()).To(ContainSubstring("simulation started"))
		Expect(logs.String()).To(ContainSubstring("simulation complete"))
	})

	It("coarse-grains transparently", func() {
		s, m := diffusionScript()
		tr, err := simulate.SimulateScript(context.Background(), s, engine.NewKineticsEngine(), m, simulate.Options{})
		Expect(err).NotTo(HaveOccurred())

		Expect(tr.System.CellCount()).To(Equal(16))
		Expect(tr.Script.System.CellCount()).To(Equal(16))
		Expect(tr.IndexMap).To(Equal(m))
		Expect(tr.NSamples()).To(Equal(3))

		first := tr.StateAt(0)
		Expect(first[0]).To(Equal(40.0))
		Expect(first[1]).To(Equal(40.0))
		Expect(first[2]).To(BeZero())
		for k := 0; k < tr.NSamples(); k++ {
			Expect(floats.Sum(tr.StateAt(k))).To(BeNumerically("~", 160, 1e-9))
		}
		last := tr.StateAt(2)
		Expect(last[15]).To(BeNumerically(">", 0))
	})

	It("returns coarse-graining errors before running", func() {
		s, _ := diffusionScript()
		_, err := simulate.SimulateScript(context.Background(), s, engine.NewKineticsEngine(), []int{0, 2}, simulate.Options{})
		Expect(err).To(MatchError(coarsegrain.ErrIndexMapSize))
	})

	It("returns partial output of a failed run", func() {
		r, err := network.NewReaction("2 A -> 3 A", network.Scalar(1.0), network.Scalar(0.0))
		Expect(err).NotTo(HaveOccurred())
		s := decayScript(1000)
		s.System.Network = network.MustNew(s.System.Network.AllSpecies(), []network.Reaction{r}, []string{""})
		s.TimeStep = 0.1
		s.TSample = []float64{0, 10}
		s.TMax = 10
		eng, err := engine.NewODEEngine("euler")
		Expect(err).NotTo(HaveOccurred())

		tr, err := simulate.SimulateScript(context.Background(), s, eng, nil, simulate.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Incomplete).To(BeTrue())
		Expect(tr.T).To(Equal([]float64{0}))
	})

	It("stops on cancellation and finalizes the engine", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		eng := engine.NewKineticsEngine()
		tr, err := simulate.SimulateScript(ctx, decayScript(10), eng, nil, simulate.Options{})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(tr).To(BeNil())
		_, err = eng.Iterate()
		Expect(err).To(MatchError(engine.ErrFinalized))
	})

	It("surfaces configuration errors", func() {
		_, err := simulate.SimulateScript(context.Background(), decayScript(10), engine.NewNativeEngine("bogus"), nil, simulate.Options{})
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent seeds in parallel", func() {
		s := decayScript(500)
		trs, err := simulate.Ensemble(context.Background(), s, func() (engine.Engine, error) {
			return engine.NewNativeEngine("tauleap"), nil
		}, 4, nil, simulate.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(trs).To(HaveLen(4))
		for i, tr := range trs {
			Expect(tr.Script.Seed).To(Equal(s.Seed + uint64(i)))
			Expect(tr.T).To(HaveLen(3))
			Expect(tr.Data[0]).To(Equal(500.0))
			Expect(tr.Data[2]).To(BeNumerically("<", 500))
			Expect(math.Trunc(tr.Data[2])).To(Equal(tr.Data[2]))
		}
	})

	It("propagates factory errors", func() {
		boom := errors.New("boom")
		_, err := simulate.Ensemble(context.Background(), decayScript(5), func() (engine.Engine, error) {
			return nil, boom
		}, 2, nil, simulate.Options{})
		Expect(err).To(MatchError(boom))
	})

	It("rejects empty ensembles", func() {
		_, err := simulate.Ensemble(context.Background(), decayScript(5), nil, 0, nil, simulate.Options{})
		Expect(err).To(MatchError(dynamo.ErrValidation))
	})
})
