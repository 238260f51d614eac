package native

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Cells per goroutine in the euler derivative.
const eulerChunk = 256

type euler struct {
	dxdt []float64
}

func (e *euler) step(s *Simulation) bool {
	if e.dxdt == nil {
		e.dxdt = make([]float64, len(s.x))
	}
	dynamo.ParallelFor(s.nCells, eulerChunk, func(start, end int) {
		rates := make([]float64, s.nReactions)
		for i := start; i < end; i++ {
			for r := range rates {
				rates[r] = s.reactionRate(i, r)
			}
			for sp := 0; sp < s.nSpecies; sp++ {
				k := s.idx(sp, i)
				if s.chemostat[k] {
					e.dxdt[k] = 0
					continue
				}
				d := 0.0
				for r, rate := range rates {
					d += float64(s.sto[sp*s.nReactions+r]) * rate
				}
				for _, n := range s.nbrs[i] {
					d -= s.x[k]*n.kdOut[sp] - s.x[s.idx(sp, n.cell)]*n.kdIn[sp]
				}
				e.dxdt[k] = d
			}
		}
	})
	floats.AddScaled(s.x, s.dt, e.dxdt)
	s.t += s.dt
	return true
}

// tauLeap draws the number of firings of every reaction and diffusion
// channel over one fixed step from the state at the start of the step.
type tauLeap struct {
	reactions []float64
	diffusion [][]float64
}

func (tl *tauLeap) poisson(s *Simulation, lambda float64) float64 {
	if !(lambda > 0) {
		return 0
	}
	return distuv.Poisson{Lambda: lambda, Src: s.src.pcg}.Rand()
}

func (tl *tauLeap) step(s *Simulation) bool {
	if tl.reactions == nil {
		tl.reactions = make([]float64, s.nCells*s.nReactions)
		tl.diffusion = make([][]float64, s.nCells)
		for i := range tl.diffusion {
			tl.diffusion[i] = make([]float64, s.nSpecies*len(s.nbrs[i]))
		}
	}

	for i := 0; i < s.nCells; i++ {
		for r := 0; r < s.nReactions; r++ {
			tl.reactions[i*s.nReactions+r] = tl.poisson(s, s.propensity(i, r)*s.dt)
		}
		nn := len(s.nbrs[i])
		for sp := 0; sp < s.nSpecies; sp++ {
			x := s.x[s.idx(sp, i)]
			for k, n := range s.nbrs[i] {
				tl.diffusion[i][sp*nn+k] = tl.poisson(s, x*n.kdOut[sp]*s.dt)
			}
		}
	}

	for i := 0; i < s.nCells; i++ {
		for r := 0; r < s.nReactions; r++ {
			if m := tl.reactions[i*s.nReactions+r]; m != 0 {
				s.applyReaction(i, r, m)
			}
		}
		nn := len(s.nbrs[i])
		for sp := 0; sp < s.nSpecies; sp++ {
			for k, n := range s.nbrs[i] {
				if m := tl.diffusion[i][sp*nn+k]; m != 0 {
					s.applyDiffusion(sp, i, n, m)
				}
			}
		}
	}
	s.t += s.dt
	return true
}

// gillespie is the direct method: one event per iteration, chosen with
// probability proportional to its propensity, after an exponential waiting
// time.
type gillespie struct {
	reactions []float64
	diffusion [][]float64
	cellR     []float64
	cellD     []float64
}

func (g *gillespie) propensities(s *Simulation) float64 {
	if g.reactions == nil {
		g.reactions = make([]float64, s.nCells*s.nReactions)
		g.diffusion = make([][]float64, s.nCells)
		for i := range g.diffusion {
			g.diffusion[i] = make([]float64, s.nSpecies*len(s.nbrs[i]))
		}
		g.cellR = make([]float64, s.nCells)
		g.cellD = make([]float64, s.nCells)
	}
	a0 := 0.0
	for i := 0; i < s.nCells; i++ {
		g.cellR[i], g.cellD[i] = 0, 0
		for r := 0; r < s.nReactions; r++ {
			a := s.propensity(i, r)
			g.reactions[i*s.nReactions+r] = a
			g.cellR[i] += a
		}
		nn := len(s.nbrs[i])
		for sp := 0; sp < s.nSpecies; sp++ {
			x := s.x[s.idx(sp, i)]
			for k, n := range s.nbrs[i] {
				a := x * n.kdOut[sp]
				g.diffusion[i][sp*nn+k] = a
				g.cellD[i] += a
			}
		}
		a0 += g.cellR[i] + g.cellD[i]
	}
	return a0
}

func (g *gillespie) fire(s *Simulation, target float64) {
	acc := 0.0
	for i := 0; i < s.nCells; i++ {
		if target < acc+g.cellR[i] {
			rest := target - acc
			for r := 0; r < s.nReactions; r++ {
				rest -= g.reactions[i*s.nReactions+r]
				if rest < 0 {
					s.applyReaction(i, r, 1)
					return
				}
			}
			return
		}
		acc += g.cellR[i]

		if target < acc+g.cellD[i] {
			rest := target - acc
			nn := len(s.nbrs[i])
			for sp := 0; sp < s.nSpecies; sp++ {
				for k, n := range s.nbrs[i] {
					rest -= g.diffusion[i][sp*nn+k]
					if rest < 0 {
						s.applyDiffusion(sp, i, n, 1)
						return
					}
				}
			}
			return
		}
		acc += g.cellD[i]
	}
}

func (g *gillespie) step(s *Simulation) bool {
	a0 := g.propensities(s)
	if a0 == 0 {
		return false
	}
	g.fire(s, s.src.rng.Float64()*a0)
	s.t += -math.Log(1-s.src.rng.Float64()) / a0
	return true
}
