package native

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/sampler"
	"github.com/san-kum/rdsim/internal/space"
)

// algorithm advances a simulation by one iteration. It returns false when no
// further event can happen.
type algorithm interface {
	step(s *Simulation) bool
}

// neighbor is one side of an edge seen from a cell, with the per-species
// rate constants of diffusion out of the cell and back into it.
type neighbor struct {
	cell  int
	kdOut []float64
	kdIn  []float64
}

// Simulation is an initialized backend run. It is not safe for concurrent
// use.
type Simulation struct {
	nCells, nSpecies, nReactions int

	x         []float64
	chemostat []bool
	nbrs      [][]neighbor
	kr        []float64
	sub, sto  []int

	t, dt, tMax float64
	complete    bool

	src rngSource
	rec *sampler.Recorder
	alg algorithm
}

type rngSource struct {
	pcg *rand.PCG
	rng *rand.Rand
}

func newSource(seed, stream uint64) rngSource {
	pcg := rand.NewPCG(seed, stream)
	return rngSource{pcg: pcg, rng: rand.New(pcg)}
}

// Initialize validates the option, boundary conditions and sampling policy
// of d and prepares a simulation at t = 0, taking the initial sample when
// the policy asks for one. A non-OK Status is returned as the error; a
// malformed description yields ErrDescription.
func Initialize(d *Description) (*Simulation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var bc space.Boundaries
	if d.Grid {
		for axis, name := range d.Boundaries {
			b, err := space.ParseBoundary(name)
			if err != nil {
				return nil, StatusInvalidBoundary
			}
			bc[axis] = b
		}
	}

	policy, err := rdsys.ParseSamplingPolicy(d.SamplingPolicy)
	if err != nil {
		return nil, StatusInvalidSampling
	}
	smp, err := sampler.New(policy, d.TSample, d.SamplingInterval)
	if err != nil {
		return nil, StatusInvalidSampling
	}

	var alg algorithm
	stochastic := true
	switch d.Option {
	case "gillespie":
		alg = &gillespie{}
	case "tauleap":
		alg = &tauLeap{}
	case "euler":
		alg = &euler{}
		stochastic = false
	default:
		return nil, StatusInvalidOption
	}

	graph, err := d.graph(bc)
	if err != nil {
		if errors.Is(err, space.ErrBoundaryCondition) {
			return nil, StatusInvalidBoundary
		}
		return nil, err
	}

	s := &Simulation{
		nCells:     graph.Size(),
		nSpecies:   d.NSpecies,
		nReactions: d.NReactions,
		chemostat:  append([]bool(nil), d.Chemostats...),
		sub:        append([]int(nil), d.Sub...),
		sto:        append([]int(nil), d.Sto...),
		dt:         d.TimeStep,
		tMax:       d.TMax,
		src:        newSource(d.Seed, d.Seed^0x9e3779b97f4a7c15),
		rec:        sampler.NewRecorder(smp),
		alg:        alg,
	}
	if stochastic {
		s.x = StochasticDistribution(d.State, d.NSpecies, s.nCells, d.Seed)
	} else {
		s.x = append([]float64(nil), d.State...)
	}
	s.buildReactionConstants(d, graph)
	s.buildDiffusionConstants(d, graph)

	s.rec.Check(s.t, s.x)
	return s, nil
}

func (d *Description) graph(bc space.Boundaries) (*space.Graph, error) {
	if d.Grid {
		g, err := space.NewGrid(d.W, d.H, d.Depth, d.CellVol, d.Env, bc)
		if err != nil {
			return nil, err
		}
		return space.GridToGraph(g)
	}
	nodes := make([]space.Node, len(d.Volumes))
	for i, v := range d.Volumes {
		nodes[i] = space.Node{Volume: v, Env: d.Env[i]}
	}
	edges := make([]space.Edge, len(d.EdgeI))
	for k := range edges {
		edges[k] = space.Edge{I: d.EdgeI[k], J: d.EdgeJ[k], Surface: d.Surface[k], Distance: d.Distance[k]}
	}
	return space.NewGraph(nodes, edges)
}

// buildReactionConstants stores k·V^(1-order) per cell and reaction, zero
// where the reaction does not occur.
func (s *Simulation) buildReactionConstants(d *Description, g *space.Graph) {
	s.kr = make([]float64, s.nCells*s.nReactions)
	for r := 0; r < s.nReactions; r++ {
		order := 0
		for sp := 0; sp < s.nSpecies; sp++ {
			order += s.sub[sp*s.nReactions+r]
		}
		for i := 0; i < s.nCells; i++ {
			e := g.CellEnvironment(i)
			if !d.REnv[r*d.NEnv+e] {
				continue
			}
			s.kr[i*s.nReactions+r] = d.K[r*d.NEnv+e] * math.Pow(g.CellVolume(i), float64(1-order))
		}
	}
}

func (s *Simulation) buildDiffusionConstants(d *Description, g *space.Graph) {
	s.nbrs = make([][]neighbor, s.nCells)
	for _, e := range g.Edges() {
		s.nbrs[e.I] = append(s.nbrs[e.I], s.link(d, g, e.I, e.J, e))
		s.nbrs[e.J] = append(s.nbrs[e.J], s.link(d, g, e.J, e.I, e))
	}
}

func (s *Simulation) link(d *Description, g *space.Graph, i, j int, e space.Edge) neighbor {
	n := neighbor{cell: j, kdOut: make([]float64, s.nSpecies), kdIn: make([]float64, s.nSpecies)}
	vi, vj := g.CellVolume(i), g.CellVolume(j)
	hi, hj := math.Cbrt(vi), math.Cbrt(vj)
	for sp := 0; sp < s.nSpecies; sp++ {
		di := d.D[sp*d.NEnv+g.CellEnvironment(i)]
		dj := d.D[sp*d.NEnv+g.CellEnvironment(j)]
		if di == 0 || dj == 0 {
			continue
		}
		dij := (hi + hj) / (hi/di + hj/dj)
		n.kdOut[sp] = dij * e.Surface / (vi * e.Distance)
		n.kdIn[sp] = dij * e.Surface / (vj * e.Distance)
	}
	return n
}

func (s *Simulation) idx(species, cell int) int {
	return species*s.nCells + cell
}

// reactionRate is the deterministic rate k·Π x^ν.
func (s *Simulation) reactionRate(cell, r int) float64 {
	rate := s.kr[cell*s.nReactions+r]
	for sp := 0; sp < s.nSpecies && rate != 0; sp++ {
		if nu := s.sub[sp*s.nReactions+r]; nu > 0 {
			rate *= math.Pow(s.x[s.idx(sp, cell)], float64(nu))
		}
	}
	return rate
}

// propensity is the stochastic rate k·Π x(x-1)...(x-ν+1), zero when a
// substrate count is below its coefficient.
func (s *Simulation) propensity(cell, r int) float64 {
	a := s.kr[cell*s.nReactions+r]
	for sp := 0; sp < s.nSpecies && a != 0; sp++ {
		nu := s.sub[sp*s.nReactions+r]
		x := s.x[s.idx(sp, cell)]
		if x < float64(nu) {
			return 0
		}
		for q := 0; q < nu; q++ {
			a *= x - float64(q)
		}
	}
	return a
}

func (s *Simulation) applyReaction(cell, r int, times float64) {
	for sp := 0; sp < s.nSpecies; sp++ {
		i := s.idx(sp, cell)
		if !s.chemostat[i] {
			s.x[i] += float64(s.sto[sp*s.nReactions+r]) * times
		}
	}
}

func (s *Simulation) applyDiffusion(species, cell int, n neighbor, times float64) {
	if i := s.idx(species, cell); !s.chemostat[i] {
		s.x[i] -= times
	}
	if j := s.idx(species, n.cell); !s.chemostat[j] {
		s.x[j] += times
	}
}

// Iterate advances the simulation by one step and reports whether it is
// still running.
func (s *Simulation) Iterate() bool {
	if s.complete {
		return false
	}
	if !s.alg.step(s) {
		s.complete = true
		return false
	}
	s.rec.Check(s.t, s.x)
	if s.tMax >= 0 && s.t > s.tMax {
		s.complete = true
	}
	return !s.complete
}

// Sample records the current state regardless of the sampling policy.
func (s *Simulation) Sample() { s.rec.Record(s.t, s.x) }

func (s *Simulation) Time() float64 { return s.t }

// Samples returns the sampled times and the flattened sampled states.
func (s *Simulation) Samples() (t, data []float64) { return s.rec.Samples() }
