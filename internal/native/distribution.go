package native

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Counts below this are drawn from a Poisson law, larger ones from a
// rounded normal law.
const poissonLimit = 100

// StochasticDistribution turns a species-major state into whole molecule
// counts. Each entry is drawn around its value, then molecules are added to
// or removed from cells picked in proportion to the original values until
// every species total equals the floor of its original total.
func StochasticDistribution(state []float64, nSpecies, nCells int, seed uint64) []float64 {
	pcg := rand.NewPCG(seed, seed)
	rng := rand.New(pcg)
	out := make([]float64, len(state))

	for i, v := range state {
		switch {
		case !(v > 0):
		case v < poissonLimit:
			out[i] = distuv.Poisson{Lambda: v, Src: pcg}.Rand()
		default:
			out[i] = math.Max(0, math.Floor(distuv.Normal{Mu: v, Sigma: math.Sqrt(v), Src: pcg}.Rand()))
		}
	}

	for sp := 0; sp < nSpecies; sp++ {
		src := state[sp*nCells : (sp+1)*nCells]
		dst := out[sp*nCells : (sp+1)*nCells]
		weight, want, got := 0.0, 0.0, 0.0
		for c := range src {
			if src[c] > 0 {
				weight += src[c]
			}
			want += src[c]
			got += dst[c]
		}
		if weight == 0 {
			continue
		}
		want = math.Max(0, math.Floor(want))
		delta := int(got - want)
		for delta != 0 {
			c := pick(src, rng.Float64()*weight)
			switch {
			case delta > 0 && dst[c] > 0:
				dst[c]--
				delta--
			case delta < 0:
				dst[c]++
				delta++
			}
		}
	}
	return out
}

// pick returns the first cell whose cumulative positive weight exceeds
// target.
func pick(weights []float64, target float64) int {
	acc, last := 0.0, 0
	for c, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = c
		if target < acc {
			return c
		}
	}
	return last
}
