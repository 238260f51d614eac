package coarsegrain_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdsim/internal/coarsegrain"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

var patchMap = []int{
	0, 0, 1, 1, 1,
	0, 0, 0, 1, 1,
	0, 0, 0, 2, 2,
	3, 3, 2, 2, 2,
	3, 3, 2, 2, 2,
}

func mustGrid(w, h, d int, env []int, bc space.Boundaries) *space.Grid {
	g, err := space.NewGrid(w, h, d, 1, env, bc)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func twoSpeciesSystem(grid *space.Grid, envs int) *rdsys.System {
	labels := make([]string, envs)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	net := network.MustNew([]network.Species{{Label: "A"}, {Label: "B"}}, nil, labels)
	sys, err := rdsys.NewSystem(net, grid, units.DefaultSystem())
	Expect(err).NotTo(HaveOccurred())
	return sys
}

// 3x3 grid, A = 1..9 and B = 2..10 by cell, A chemostated in cells 3 and 7,
// B in cell 2.
func nineCellSystem() *rdsys.System {
	sys := twoSpeciesSystem(mustGrid(3, 3, 1, []int{0, 1, 1, 0, 2, 4, 3, 2, 4}, space.AllReflecting()), 5)
	for c := 0; c < 9; c++ {
		sys.State[sys.Index(0, c)] = float64(c + 1)
		sys.State[sys.Index(1, c)] = float64(c + 2)
	}
	sys.Chemostats[sys.Index(0, 3)] = true
	sys.Chemostats[sys.Index(0, 7)] = true
	sys.Chemostats[sys.Index(1, 2)] = true
	return sys
}

var _ = Describe("ValidateIndexMap", func() {
	var grid *space.Grid

	BeforeEach(func() {
		grid = mustGrid(2, 2, 1, []int{0, 0, 1, 1}, space.AllReflecting())
	})

	DescribeTable("rejects malformed maps",
		func(m []int, want error) {
			err := coarsegrain.ValidateIndexMap(m, grid)
			Expect(err).To(MatchError(want))
			Expect(err).To(MatchError(coarsegrain.ErrInvalidIndexMap))
			Expect(err).To(MatchError(dynamo.ErrValidation))
		},
		Entry("wrong length", []int{0, 0, 1}, coarsegrain.ErrIndexMapSize),
		Entry("value below -1", []int{0, -2, 1, 1}, coarsegrain.ErrIndexMapValue),
		Entry("all dropped", []int{-1, -1, -1, -1}, coarsegrain.ErrIndexMapEmpty),
		Entry("unused index", []int{0, 0, 2, 2}, coarsegrain.ErrIndexMapGap),
		Entry("mixed environments", []int{0, 0, 0, 1}, coarsegrain.ErrIndexMapEnvironment),
	)

	It("accepts maps with dropped cells", func() {
		Expect(coarsegrain.ValidateIndexMap([]int{0, -1, 1, -1}, grid)).To(Succeed())
	})
})

var _ = Describe("CoarsegrainTopology", func() {
	It("aggregates a 5x5 grid into four patches", func() {
		graph, err := coarsegrain.CoarsegrainTopology(mustGrid(5, 5, 1, patchMap, space.AllReflecting()), patchMap)
		Expect(err).NotTo(HaveOccurred())

		Expect(graph.Size()).To(Equal(4))
		Expect(space.Volumes(graph)).To(Equal([]float64{8, 5, 8, 4}))
		Expect(space.Environments(graph)).To(Equal([]int{0, 1, 2, 3}))
		Expect(graph.NEdges()).To(Equal(5))

		centroids := [][2]float64{{7.0 / 8, 9.0 / 8}, {16.0 / 5, 2.0 / 5}, {25.0 / 8, 25.0 / 8}, {0.5, 3.5}}
		surfaces := map[[2]int]float64{{0, 1}: 3, {0, 2}: 2, {0, 3}: 2, {1, 2}: 2, {2, 3}: 2}
		for p, s := range surfaces {
			e, ok := graph.Edge(p[0], p[1])
			Expect(ok).To(BeTrue(), "edge %v", p)
			Expect(e.Surface).To(BeNumerically("~", s, 1e-12))
			a, b := centroids[p[0]], centroids[p[1]]
			Expect(e.Distance).To(BeNumerically("~", math.Hypot(a[0]-b[0], a[1]-b[1]), 1e-12))
		}
		Expect(graph.AreNeighbors(1, 3)).To(BeFalse())
	})

	It("keeps the environments of the kept cells", func() {
		graph, err := coarsegrain.CoarsegrainTopology(mustGrid(2, 2, 1, []int{2, 1, 4, 4}, space.AllReflecting()), []int{0, 1, -1, -1})
		Expect(err).NotTo(HaveOccurred())
		Expect(space.Environments(graph)).To(Equal([]int{2, 1}))
		Expect(space.Volumes(graph)).To(Equal([]float64{1, 1}))
		Expect(graph.AreNeighbors(0, 1)).To(BeTrue())
	})

	It("rejects periodic grids", func() {
		bc := space.AllReflecting()
		bc[0] = space.Periodic
		_, err := coarsegrain.CoarsegrainTopology(mustGrid(2, 2, 1, nil, bc), []int{0, 0, 0, 0})
		Expect(err).To(MatchError(coarsegrain.ErrBoundary))
	})

	It("rejects graphs", func() {
		graph, err := space.NewGraph([]space.Node{{Volume: 1}, {Volume: 1}}, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = coarsegrain.CoarsegrainTopology(graph, []int{0, 0})
		Expect(err).To(MatchError(coarsegrain.ErrUnsupportedTopology))
	})
})

var _ = Describe("CoarsegrainSystem", func() {
	It("sums quantities and merges chemostats", func() {
		sys := nineCellSystem()
		coarse, err := coarsegrain.CoarsegrainSystem(sys, []int{0, 1, 1, 0, 2, 4, 3, 2, 4})
		Expect(err).NotTo(HaveOccurred())

		Expect(coarse.State).To(Equal([]float64{5, 5, 13, 7, 15, 7, 7, 15, 8, 17}))
		Expect(coarse.Chemostats).To(Equal([]bool{true, false, true, false, false, false, true, false, false, false}))
		Expect(space.Volumes(coarse.Space)).To(Equal([]float64{2, 2, 2, 1, 2}))
		Expect(coarse.Validate()).To(Succeed())
	})

	It("drops cells mapped to -1", func() {
		sys := nineCellSystem()
		coarse, err := coarsegrain.CoarsegrainSystem(sys, []int{0, 1, 1, 0, 2, -1, 3, 2, -1})
		Expect(err).NotTo(HaveOccurred())
		Expect(coarse.State).To(Equal([]float64{5, 5, 13, 7, 7, 7, 15, 8}))
		Expect(space.Volumes(coarse.Space)).To(Equal([]float64{2, 2, 2, 1}))
	})

	It("conserves volume and quantity when every cell is kept", func() {
		grid := mustGrid(6, 4, 1, nil, space.AllReflecting())
		sys := twoSpeciesSystem(grid, 1)
		m := make([]int, grid.Size())
		for i := range m {
			x, y, _, _ := grid.Coords(i)
			m[i] = x/2 + 3*(y/2)
			sys.State[sys.Index(0, i)] = float64(i * i)
			sys.State[sys.Index(1, i)] = 0.5 * float64(i)
		}
		coarse, err := coarsegrain.CoarsegrainSystem(sys, m)
		Expect(err).NotTo(HaveOccurred())

		Expect(coarse.CellCount()).To(Equal(6))
		Expect(floats.Sum(space.Volumes(coarse.Space))).To(BeNumerically("~", floats.Sum(space.Volumes(grid)), 1e-12))
		for s := 0; s < 2; s++ {
			fine := sys.State[s*grid.Size() : (s+1)*grid.Size()]
			agg := coarse.State[s*6 : (s+1)*6]
			Expect(floats.Sum(agg)).To(BeNumerically("~", floats.Sum(fine), 1e-9))
		}
	})
})

var _ = Describe("UncoarsegrainTrajectory", func() {
	m := []int{0, 1, 1, 0, 2, -1, 3, 2, -1}

	var (
		fine   *rdsys.System
		coarse *rdsys.System
		tr     *rdsys.Trajectory
	)

	BeforeEach(func() {
		fine = nineCellSystem()
		var err error
		coarse, err = coarsegrain.CoarsegrainSystem(fine, m)
		Expect(err).NotTo(HaveOccurred())
		data := append([]float64(nil), coarse.State...)
		for _, v := range coarse.State {
			data = append(data, 2*v)
		}
		tr = &rdsys.Trajectory{
			T:      []float64{0, 1},
			Data:   data,
			System: coarse,
			Engine: "kinetics",
			Units:  coarse.Units,
		}
	})

	It("splits node quantities evenly over their cells", func() {
		out, err := coarsegrain.UncoarsegrainTrajectory(tr, fine, m)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.NSamples()).To(Equal(2))
		Expect(out.System.CellCount()).To(Equal(9))
		Expect(out.IndexMap).To(Equal(m))
		Expect(out.Engine).To(Equal("kinetics"))

		Expect(out.StateAt(0)[:9]).To(Equal([]float64{2.5, 2.5, 2.5, 2.5, 6.5, 0, 7, 6.5, 0}))
		Expect(out.StateAt(1)[9:]).To(Equal([]float64{7, 7, 7, 7, 15, 0, 16, 15, 0}))
	})

	It("preserves per-node totals", func() {
		out, err := coarsegrain.UncoarsegrainTrajectory(tr, fine, m)
		Expect(err).NotTo(HaveOccurred())
		back, err := coarsegrain.CoarsegrainSystem(&rdsys.System{
			Network:    fine.Network,
			Space:      fine.Space,
			State:      out.StateAt(1),
			Chemostats: fine.Chemostats,
			Units:      fine.Units,
		}, m)
		Expect(err).NotTo(HaveOccurred())
		for i, v := range tr.StateAt(1) {
			Expect(back.State[i]).To(BeNumerically("~", v, 1e-12))
		}
	})

	It("rejects a map that does not match the coarse system", func() {
		_, err := coarsegrain.UncoarsegrainTrajectory(tr, fine, []int{0, 1, 1, 0, 2, 4, 3, 2, 4})
		Expect(err).To(MatchError(coarsegrain.ErrIndexMapSize))
	})
})
