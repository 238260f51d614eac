// Package native is the flat, array based simulation backend. It receives a
// System as plain matrices (a Description), runs one of the gillespie,
// tauleap or euler algorithms over it and reports samples in the
// species-major, cell-minor layout used everywhere else.
package native

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
)

var ErrDescription = fmt.Errorf("%w: malformed native description", dynamo.ErrValidation)

// Options lists the supported algorithm selectors.
var Options = []string{"gillespie", "tauleap", "euler"}

// Geometry is either a grid (Grid set) or a graph given by its node volumes
// and edge lists.
type Geometry struct {
	Grid        bool
	W, H, Depth int
	CellVol     float64
	Boundaries  [3]string

	Volumes  []float64
	EdgeI    []int
	EdgeJ    []int
	Surface  []float64
	Distance []float64

	Env []int
}

func (g *Geometry) cells() int {
	if g.Grid {
		return g.W * g.H * g.Depth
	}
	return len(g.Volumes)
}

// Description is the flattened input of one simulation. Matrices are row
// major: Sub and Sto are species×reaction, K and REnv reaction×environment,
// D species×environment. State and Chemostats are species-major. Reactions
// are irreversible steps. A negative TMax means no termination time.
type Description struct {
	Geometry

	NSpecies, NReactions, NEnv int

	K    []float64
	Sub  []int
	Sto  []int
	REnv []bool
	D    []float64

	State      []float64
	Chemostats []bool

	TSample          []float64
	SamplingPolicy   string
	SamplingInterval float64
	TMax             float64
	TimeStep         float64
	Seed             uint64
	Option           string
}

// Describe flattens the system of script, expressed in the script units,
// for the given algorithm.
func Describe(script *rdsys.Script, option string) (*Description, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	sys := script.Resolved().System
	net := sys.Network.Split()
	envs := net.Environments()
	nS, nR, nE := net.NSpecies(), net.NReactions(), net.NEnvironments()

	d := &Description{
		NSpecies:         nS,
		NReactions:       nR,
		NEnv:             nE,
		K:                make([]float64, nR*nE),
		Sub:              make([]int, nS*nR),
		Sto:              make([]int, nS*nR),
		REnv:             make([]bool, nR*nE),
		D:                make([]float64, nS*nE),
		State:            append([]float64(nil), sys.State...),
		Chemostats:       append([]bool(nil), sys.Chemostats...),
		TSample:          append([]float64(nil), script.TSample...),
		SamplingPolicy:   string(script.SamplingPolicy),
		SamplingInterval: script.SamplingInterval,
		TMax:             script.TMax,
		TimeStep:         script.TimeStep,
		Seed:             script.Seed,
		Option:           option,
	}

	for r := 0; r < nR; r++ {
		rx := net.Reaction(r)
		for e, env := range envs {
			d.K[r*nE+e] = rx.Kf.Resolve(env, 0)
			d.REnv[r*nE+e] = rx.AppliesIn(env)
		}
	}
	for s := 0; s < nS; s++ {
		sp := net.Species(s)
		for r := 0; r < nR; r++ {
			rx := net.Reaction(r)
			d.Sub[s*nR+r] = rx.SubstrateCoeff(sp.Label)
			d.Sto[s*nR+r] = rx.ProductCoeff(sp.Label) - rx.SubstrateCoeff(sp.Label)
		}
		for e, env := range envs {
			d.D[s*nE+e] = sp.D.Resolve(env, 0)
		}
	}

	d.Env = space.Environments(sys.Space)
	switch t := sys.Space.(type) {
	case *space.Grid:
		d.Grid = true
		d.W, d.H, d.Depth = t.Shape()
		d.CellVol = t.CellVol()
		for axis, bc := range t.Boundaries() {
			d.Boundaries[axis] = string(bc)
		}
	case *space.Graph:
		d.Volumes = space.Volumes(t)
		for _, e := range t.Edges() {
			d.EdgeI = append(d.EdgeI, e.I)
			d.EdgeJ = append(d.EdgeJ, e.J)
			d.Surface = append(d.Surface, e.Surface)
			d.Distance = append(d.Distance, e.Distance)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported topology %s", ErrDescription, t.Kind())
	}
	return d, nil
}

// Validate checks that every array has the length its counts imply and that
// indices are in range.
func (d *Description) Validate() error {
	if d.NSpecies < 0 || d.NReactions < 0 || d.NEnv < 1 {
		return fmt.Errorf("%w: %d species, %d reactions, %d environments", ErrDescription, d.NSpecies, d.NReactions, d.NEnv)
	}
	if d.Grid {
		if d.W < 1 || d.H < 1 || d.Depth < 1 || !(d.CellVol > 0) {
			return fmt.Errorf("%w: grid %dx%dx%d with cell volume %g", ErrDescription, d.W, d.H, d.Depth, d.CellVol)
		}
	} else {
		ne := len(d.EdgeI)
		if len(d.EdgeJ) != ne || len(d.Surface) != ne || len(d.Distance) != ne {
			return fmt.Errorf("%w: edge arrays differ in length", ErrDescription)
		}
		for k := 0; k < ne; k++ {
			if d.EdgeI[k] < 0 || d.EdgeI[k] >= len(d.Volumes) || d.EdgeJ[k] < 0 || d.EdgeJ[k] >= len(d.Volumes) {
				return fmt.Errorf("%w: edge %d out of range", ErrDescription, k)
			}
			if !(d.Distance[k] > 0) {
				return fmt.Errorf("%w: edge %d has distance %g", ErrDescription, k, d.Distance[k])
			}
		}
	}
	n := d.cells()
	checks := []struct {
		name      string
		got, want int
	}{
		{"env", len(d.Env), n},
		{"k", len(d.K), d.NReactions * d.NEnv},
		{"r_env", len(d.REnv), d.NReactions * d.NEnv},
		{"sub", len(d.Sub), d.NSpecies * d.NReactions},
		{"sto", len(d.Sto), d.NSpecies * d.NReactions},
		{"D", len(d.D), d.NSpecies * d.NEnv},
		{"state", len(d.State), d.NSpecies * n},
		{"chemostats", len(d.Chemostats), d.NSpecies * n},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrDescription, c.name, c.got, c.want)
		}
	}
	for i, e := range d.Env {
		if e < 0 || e >= d.NEnv {
			return fmt.Errorf("%w: cell %d uses environment %d", ErrDescription, i, e)
		}
	}
	if !(d.TimeStep > 0) {
		return fmt.Errorf("%w: time step %g", ErrDescription, d.TimeStep)
	}
	return nil
}
