package kinetics

import (
	"fmt"
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
)

type stoich struct {
	species int
	coeff   int
}

// step is one irreversible reaction step with its per cell rate constant
// k·V^(1-order), zero where the step does not occur.
type step struct {
	substrates []stoich
	delta      []stoich
	k          []float64
}

// link is the diffusion of one species across one edge.
type link struct {
	src, dst int
	kf, kr   float64
}

// ODE is the right-hand side of the deterministic reaction-diffusion
// equations of a System, with chemostats applied. It implements
// dynamo.System over states in the units of the System it was built from.
type ODE struct {
	nSpecies, nCells int
	steps            []step
	links            []link
	chemostats       []bool
}

func NewODE(sys *rdsys.System) (*ODE, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	o := &ODE{
		nSpecies:   sys.SpeciesCount(),
		nCells:     sys.CellCount(),
		chemostats: append([]bool(nil), sys.Chemostats...),
	}

	split := sys.Network.Split()
	for r := 0; r < split.NReactions(); r++ {
		rx := split.Reaction(r)
		st := step{k: make([]float64, o.nCells)}
		for _, t := range rx.Substrates {
			si, err := split.SpeciesIndex(t.Species)
			if err != nil {
				return nil, err
			}
			st.substrates = append(st.substrates, stoich{species: si, coeff: t.Coeff})
		}
		for si := 0; si < o.nSpecies; si++ {
			label := split.Species(si).Label
			if d := rx.ProductCoeff(label) - rx.SubstrateCoeff(label); d != 0 {
				st.delta = append(st.delta, stoich{species: si, coeff: d})
			}
		}
		nonzero := false
		for c := 0; c < o.nCells; c++ {
			env := sys.EnvironmentLabel(c)
			if !rx.AppliesIn(env) {
				continue
			}
			st.k[c] = rx.Kf.Resolve(env, 0) * math.Pow(sys.Space.CellVolume(c), float64(1-rx.Order()))
			nonzero = nonzero || st.k[c] != 0
		}
		if nonzero && len(st.delta) > 0 {
			o.steps = append(o.steps, st)
		}
	}

	for s := 0; s < o.nSpecies; s++ {
		for i := 0; i < o.nCells; i++ {
			for _, j := range sys.Space.Neighbors(i) {
				if j <= i {
					continue
				}
				kf, kr, err := diffusionConstants(sys, s, i, j)
				if err != nil {
					return nil, err
				}
				if kf == 0 && kr == 0 {
					continue
				}
				o.links = append(o.links, link{src: s*o.nCells + i, dst: s*o.nCells + j, kf: kf, kr: kr})
			}
		}
	}
	return o, nil
}

// diffusionConstants mirrors DiffusionConstants on plain numbers.
func diffusionConstants(sys *rdsys.System, species, src, dst int) (float64, float64, error) {
	sp := sys.Network.Species(species)
	ds := sp.D.Resolve(sys.EnvironmentLabel(src), 0)
	dd := sp.D.Resolve(sys.EnvironmentLabel(dst), 0)
	if ds == 0 || dd == 0 {
		return 0, 0, nil
	}
	switch t := sys.Space.(type) {
	case *space.Grid:
		h := t.EdgeLength()
		k := 2 / (h * h * (1/ds + 1/dd))
		return k, k, nil
	case *space.Graph:
		e, ok := t.Edge(src, dst)
		if !ok {
			return 0, 0, fmt.Errorf("%w: %d and %d", ErrNotAdjacent, src, dst)
		}
		vs, vd := t.CellVolume(src), t.CellVolume(dst)
		hs, hd := math.Cbrt(vs), math.Cbrt(vd)
		effD := (hs + hd) / (hs/ds + hd/dd)
		return effD * e.Surface / (vs * e.Distance), effD * e.Surface / (vd * e.Distance), nil
	default:
		return 0, 0, fmt.Errorf("%w: %T", ErrUnsupportedTopology, sys.Space)
	}
}

func (o *ODE) StateDim() int { return o.nSpecies * o.nCells }

func (o *ODE) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	for _, st := range o.steps {
		for c := 0; c < o.nCells; c++ {
			rate := st.k[c]
			if rate == 0 {
				continue
			}
			for _, s := range st.substrates {
				rate *= ipow(x[s.species*o.nCells+c], s.coeff)
			}
			for _, d := range st.delta {
				dx[d.species*o.nCells+c] += float64(d.coeff) * rate
			}
		}
	}
	for _, l := range o.links {
		flux := l.kf*x[l.src] - l.kr*x[l.dst]
		dx[l.src] -= flux
		dx[l.dst] += flux
	}
	for i, on := range o.chemostats {
		if on {
			dx[i] = 0
		}
	}
	return dx
}

func ipow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}
