// Package kinetics computes reaction and diffusion rates of a System and
// assembles its state derivative.
//
// The functions of this file work on dimension-tagged values and serve as
// the reference formulas. ODE, in ode.go, is the same right-hand side
// compiled to plain float64 arithmetic for the integrators.
package kinetics

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

var (
	ErrNotAdjacent         = fmt.Errorf("%w: cells are not adjacent", dynamo.ErrValidation)
	ErrUnsupportedTopology = fmt.Errorf("%w: unsupported topology", dynamo.ErrValidation)
)

func stateOf(sys *rdsys.System, state []float64) ([]float64, error) {
	if state == nil {
		return sys.State, nil
	}
	if n := sys.SpeciesCount() * sys.CellCount(); len(state) != n {
		return nil, fmt.Errorf("%w: got %d entries, want %d", rdsys.ErrStateLength, len(state), n)
	}
	return state, nil
}

func checkSpecies(sys *rdsys.System, species int) error {
	if species < 0 || species >= sys.SpeciesCount() {
		return fmt.Errorf("%w: species index %d", network.ErrUndefinedSpecies, species)
	}
	return nil
}

func quantity(sys *rdsys.System, state []float64, species, cell int) units.Value {
	return units.New(state[sys.Index(species, cell)], units.Quantity, sys.Units)
}

// ReactionRates returns the forward and reverse rates of reaction r in a
// cell: k·V·Π(x/V)^n over the substrates (forward) or products (reverse).
// Both are zero where the reaction does not occur. A nil state means
// sys.State.
func ReactionRates(sys *rdsys.System, r, cell int, state []float64) (fwd, rev units.Value, err error) {
	if r < 0 || r >= sys.Network.NReactions() {
		return fwd, rev, fmt.Errorf("%w: reaction index %d", network.ErrUndefinedReaction, r)
	}
	if err := space.CheckIndex(sys.Space, cell); err != nil {
		return fwd, rev, err
	}
	if state, err = stateOf(sys, state); err != nil {
		return fwd, rev, err
	}

	rx := sys.Network.Reaction(r)
	env := sys.EnvironmentLabel(cell)
	if !rx.AppliesIn(env) {
		return units.Zero(units.Rate), units.Zero(units.Rate), nil
	}

	vol := units.New(sys.Space.CellVolume(cell), units.Volume, sys.Units)
	side := func(k units.Value, terms []network.Term) (units.Value, error) {
		rate := k.Mul(vol)
		for _, t := range terms {
			si, err := sys.Network.SpeciesIndex(t.Species)
			if err != nil {
				return units.Value{}, err
			}
			rate = rate.Mul(quantity(sys, state, si, cell).Div(vol).Pow(t.Coeff))
		}
		return rate, nil
	}

	kf := units.New(rx.Kf.Resolve(env, 0), rx.KfDims(), sys.Units)
	kr := units.New(rx.Kr.Resolve(env, 0), rx.KrDims(), sys.Units)
	if fwd, err = side(kf, rx.Substrates); err != nil {
		return fwd, rev, err
	}
	if rev, err = side(kr, rx.Products); err != nil {
		return fwd, rev, err
	}
	return fwd, rev, nil
}

// DiffusionConstants returns the pseudo first order rate constants of the
// src->dst and dst->src diffusion of a species between adjacent cells.
func DiffusionConstants(sys *rdsys.System, species, src, dst int) (kf, kr units.Value, err error) {
	if err := checkSpecies(sys, species); err != nil {
		return kf, kr, err
	}
	if err := space.CheckIndex(sys.Space, src, dst); err != nil {
		return kf, kr, err
	}
	if !sys.Space.AreNeighbors(src, dst) {
		return kf, kr, fmt.Errorf("%w: %d and %d", ErrNotAdjacent, src, dst)
	}

	sp := sys.Network.Species(species)
	dSrc := sp.D.Resolve(sys.EnvironmentLabel(src), 0)
	dDst := sp.D.Resolve(sys.EnvironmentLabel(dst), 0)
	if dSrc == 0 || dDst == 0 {
		return units.Zero(units.Frequency), units.Zero(units.Frequency), nil
	}
	ds := units.New(dSrc, units.Diffusion, sys.Units)
	dd := units.New(dDst, units.Diffusion, sys.Units)
	one := units.New(1, units.Dimensionless, sys.Units)

	switch t := sys.Space.(type) {
	case *space.Grid:
		h, err := units.New(t.CellVol(), units.Volume, sys.Units).Cbrt()
		if err != nil {
			return kf, kr, err
		}
		k := one.Scale(2).Div(h.Pow(2).Mul(one.Div(ds).Add(one.Div(dd))))
		return k, k, nil

	case *space.Graph:
		e, _ := t.Edge(src, dst)
		vs := units.New(t.CellVolume(src), units.Volume, sys.Units)
		vd := units.New(t.CellVolume(dst), units.Volume, sys.Units)
		hs, err := vs.Cbrt()
		if err != nil {
			return kf, kr, err
		}
		hd, err := vd.Cbrt()
		if err != nil {
			return kf, kr, err
		}
		effD := hs.Add(hd).Div(hs.Div(ds).Add(hd.Div(dd)))
		flux := effD.Mul(units.New(e.Surface, units.Surface, sys.Units)).Div(units.New(e.Distance, units.Length, sys.Units))
		return flux.Div(vs), flux.Div(vd), nil

	default:
		return kf, kr, fmt.Errorf("%w: %T", ErrUnsupportedTopology, sys.Space)
	}
}

// DiffusionRates returns the src->dst rate (forward) and dst->src rate
// (reverse) of a species. Each is its rate constant times the quantity in
// the cell the flow leaves.
func DiffusionRates(sys *rdsys.System, species, src, dst int, state []float64) (fwd, rev units.Value, err error) {
	if state, err = stateOf(sys, state); err != nil {
		return fwd, rev, err
	}
	kf, kr, err := DiffusionConstants(sys, species, src, dst)
	if err != nil {
		return fwd, rev, err
	}
	return kf.Mul(quantity(sys, state, species, src)), kr.Mul(quantity(sys, state, species, dst)), nil
}

// DSpeciesDt returns the time derivative of one species in one cell. With
// applyChemostats, a chemostated species/cell has a zero derivative.
func DSpeciesDt(sys *rdsys.System, species, cell int, state []float64, applyChemostats bool) (units.Value, error) {
	if err := checkSpecies(sys, species); err != nil {
		return units.Value{}, err
	}
	if err := space.CheckIndex(sys.Space, cell); err != nil {
		return units.Value{}, err
	}
	state, err := stateOf(sys, state)
	if err != nil {
		return units.Value{}, err
	}
	if applyChemostats && sys.Chemostats[sys.Index(species, cell)] {
		return units.Zero(units.Rate), nil
	}

	label := sys.Network.Species(species).Label
	total := units.Zero(units.Rate)
	for r := 0; r < sys.Network.NReactions(); r++ {
		rx := sys.Network.Reaction(r)
		coeff := rx.ProductCoeff(label) - rx.SubstrateCoeff(label)
		if coeff == 0 {
			continue
		}
		fwd, rev, err := ReactionRates(sys, r, cell, state)
		if err != nil {
			return units.Value{}, err
		}
		total = total.Add(fwd.Sub(rev).Scale(float64(coeff)))
	}

	for _, nb := range sys.Space.Neighbors(cell) {
		out, in, err := DiffusionRates(sys, species, cell, nb, state)
		if err != nil {
			return units.Value{}, err
		}
		total = total.Add(in.Sub(out))
	}
	return total, nil
}

// DStateDt returns the derivative of the whole state, in the state layout and
// in the units of sys.
func DStateDt(sys *rdsys.System, state []float64, applyChemostats bool) (units.Array, error) {
	state, err := stateOf(sys, state)
	if err != nil {
		return units.Array{}, err
	}
	out := units.Array{
		Values: make([]float64, len(state)),
		Dims:   units.Rate,
		System: sys.Units,
	}
	for s := 0; s < sys.SpeciesCount(); s++ {
		for c := 0; c < sys.CellCount(); c++ {
			v, err := DSpeciesDt(sys, s, c, state, applyChemostats)
			if err != nil {
				return units.Array{}, err
			}
			out.Values[sys.Index(s, c)] = v.In(sys.Units)
		}
	}
	return out, nil
}
