// Package rdsys holds the value objects handed between the simulation
// layers: System (network, topology, state), Script (a simulation request)
// and Trajectory (its sampled output).
//
// State vectors are laid out species-major then cell-minor: the quantity of
// species s in cell c is at s·cellCount + c.
package rdsys

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

var (
	ErrStateLength      = fmt.Errorf("%w: state length does not match species x cells", dynamo.ErrValidation)
	ErrEnvironmentIndex = fmt.Errorf("%w: cell environment index out of range", dynamo.ErrValidation)
	ErrNegativeQuantity = fmt.Errorf("%w: negative quantity", dynamo.ErrValidation)
)

// System is a network on a topology together with its current state and
// chemostat flags. Numbers are expressed in Units.
type System struct {
	Network    *network.Network
	Space      space.Topology
	State      []float64
	Chemostats []bool
	Units      units.System
}

// NewSystem builds a system whose state is the default density of each
// species times the cell volume, and whose chemostats follow the species
// chemostat parameter of each cell's environment.
func NewSystem(net *network.Network, sp space.Topology, u units.System) (*System, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrValidation, err)
	}
	for i := 0; i < sp.Size(); i++ {
		if e := sp.CellEnvironment(i); e >= net.NEnvironments() {
			return nil, fmt.Errorf("%w: cell %d uses environment %d, network has %d", ErrEnvironmentIndex, i, e, net.NEnvironments())
		}
	}

	n := net.NSpecies() * sp.Size()
	s := &System{
		Network:    net,
		Space:      sp.Clone(),
		State:      make([]float64, n),
		Chemostats: make([]bool, n),
		Units:      u,
	}
	for si := 0; si < net.NSpecies(); si++ {
		species := net.Species(si)
		for c := 0; c < s.CellCount(); c++ {
			env := s.EnvironmentLabel(c)
			s.State[s.Index(si, c)] = species.Density.Resolve(env, 0) * s.Space.CellVolume(c)
			s.Chemostats[s.Index(si, c)] = species.Chemostat.Resolve(env, false)
		}
	}
	return s, nil
}

func (s *System) CellCount() int    { return s.Space.Size() }
func (s *System) SpeciesCount() int { return s.Network.NSpecies() }

func (s *System) Index(species, cell int) int {
	return species*s.CellCount() + cell
}

// EnvironmentLabel returns the environment label of a cell.
func (s *System) EnvironmentLabel(cell int) string {
	return s.Network.Environment(s.Space.CellEnvironment(cell))
}

// Validate checks the cross-object invariants of s.
func (s *System) Validate() error {
	n := s.SpeciesCount() * s.CellCount()
	if len(s.State) != n {
		return fmt.Errorf("%w: state has %d entries, want %d", ErrStateLength, len(s.State), n)
	}
	if len(s.Chemostats) != n {
		return fmt.Errorf("%w: chemostats have %d entries, want %d", ErrStateLength, len(s.Chemostats), n)
	}
	for i := 0; i < s.CellCount(); i++ {
		if e := s.Space.CellEnvironment(i); e >= s.Network.NEnvironments() {
			return fmt.Errorf("%w: cell %d uses environment %d", ErrEnvironmentIndex, i, e)
		}
	}
	for i, v := range s.State {
		if v < 0 {
			return fmt.Errorf("%w at state index %d", ErrNegativeQuantity, i)
		}
	}
	return s.Units.Validate()
}

func (s *System) speciesCell(label string, cell int) (int, error) {
	si, err := s.Network.SpeciesIndex(label)
	if err != nil {
		return -1, err
	}
	if err := space.CheckIndex(s.Space, cell); err != nil {
		return -1, err
	}
	return s.Index(si, cell), nil
}

// Quantity returns the quantity of a species in a cell.
func (s *System) Quantity(label string, cell int) (float64, error) {
	i, err := s.speciesCell(label, cell)
	if err != nil {
		return 0, err
	}
	return s.State[i], nil
}

func (s *System) SetQuantity(label string, cell int, v float64) error {
	if v < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeQuantity, v)
	}
	i, err := s.speciesCell(label, cell)
	if err != nil {
		return err
	}
	s.State[i] = v
	return nil
}

func (s *System) SetChemostat(label string, cell int, on bool) error {
	i, err := s.speciesCell(label, cell)
	if err != nil {
		return err
	}
	s.Chemostats[i] = on
	return nil
}

// SpeciesState returns a copy of the quantities of one species, per cell.
func (s *System) SpeciesState(label string) ([]float64, error) {
	si, err := s.Network.SpeciesIndex(label)
	if err != nil {
		return nil, err
	}
	n := s.CellCount()
	return append([]float64(nil), s.State[si*n:(si+1)*n]...), nil
}

// Copy returns a deep copy. The network is immutable and shared.
func (s *System) Copy() *System {
	return &System{
		Network:    s.Network,
		Space:      s.Space.Clone(),
		State:      append([]float64(nil), s.State...),
		Chemostats: append([]bool(nil), s.Chemostats...),
		Units:      s.Units,
	}
}

// In returns a copy of s with every number expressed in u.
func (s *System) In(u units.System) *System {
	if u == s.Units {
		return s.Copy()
	}
	c := &System{
		Network:    s.Network.In(s.Units, u),
		Space:      s.Space.In(s.Units, u),
		State:      append([]float64(nil), s.State...),
		Chemostats: append([]bool(nil), s.Chemostats...),
		Units:      u,
	}
	units.ConvertSlice(c.State, units.Quantity, s.Units, u)
	return c
}
