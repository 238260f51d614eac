package network

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/units"
)

var (
	ErrDuplicateSpecies     = fmt.Errorf("%w: duplicated species label", dynamo.ErrValidation)
	ErrDuplicateReaction    = fmt.Errorf("%w: duplicated reaction label", dynamo.ErrValidation)
	ErrUndefinedSpecies     = fmt.Errorf("%w: reference to an undefined species", dynamo.ErrValidation)
	ErrUndefinedReaction    = fmt.Errorf("%w: reference to an undefined reaction", dynamo.ErrValidation)
	ErrInvalidEnvironments  = fmt.Errorf("%w: invalid environment set", dynamo.ErrValidation)
	ErrUndefinedEnvironment = fmt.Errorf("%w: reference to an undefined environment", dynamo.ErrValidation)
)

// Network is an immutable set of species, reactions and environment labels.
type Network struct {
	species      []Species
	reactions    []Reaction
	environments []string
}

// New validates and copies its arguments. Environment labels must be unique,
// non-empty as a set, and may not use the reserved "default" key.
func New(species []Species, reactions []Reaction, environments []string) (*Network, error) {
	if len(environments) == 0 {
		return nil, fmt.Errorf("%w: at least one environment is required", ErrInvalidEnvironments)
	}
	envSeen := make(map[string]bool, len(environments))
	for _, e := range environments {
		if e == DefaultKey {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidEnvironments, DefaultKey)
		}
		if envSeen[e] {
			return nil, fmt.Errorf("%w: duplicated environment %q", ErrInvalidEnvironments, e)
		}
		envSeen[e] = true
	}

	speciesSeen := make(map[string]bool, len(species))
	for _, s := range species {
		if speciesSeen[s.Label] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateSpecies, s.Label)
		}
		speciesSeen[s.Label] = true
	}

	reactionSeen := make(map[string]bool, len(reactions))
	for i, r := range reactions {
		if r.Label != "" {
			if reactionSeen[r.Label] {
				return nil, fmt.Errorf("%w %q", ErrDuplicateReaction, r.Label)
			}
			reactionSeen[r.Label] = true
		}
		for _, t := range r.Substrates {
			if !speciesSeen[t.Species] {
				return nil, fmt.Errorf("%w: reaction %d substrate %q", ErrUndefinedSpecies, i, t.Species)
			}
		}
		for _, t := range r.Products {
			if !speciesSeen[t.Species] {
				return nil, fmt.Errorf("%w: reaction %d product %q", ErrUndefinedSpecies, i, t.Species)
			}
		}
		if r.Environments != nil && len(r.Environments) == 0 {
			return nil, fmt.Errorf("%w: reaction %d has an empty environment restriction", ErrInvalidEnvironments, i)
		}
		for _, e := range r.Environments {
			if !envSeen[e] {
				return nil, fmt.Errorf("%w: reaction %d is restricted to %q", ErrUndefinedEnvironment, i, e)
			}
		}
	}

	n := &Network{
		species:      append([]Species(nil), species...),
		reactions:    make([]Reaction, len(reactions)),
		environments: append([]string(nil), environments...),
	}
	for i, r := range reactions {
		n.reactions[i] = r.Clone()
	}
	return n, nil
}

// MustNew is New for literals in tests and presets.
func MustNew(species []Species, reactions []Reaction, environments []string) *Network {
	n, err := New(species, reactions, environments)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Network) NSpecies() int      { return len(n.species) }
func (n *Network) NReactions() int    { return len(n.reactions) }
func (n *Network) NEnvironments() int { return len(n.environments) }

func (n *Network) Species(i int) Species    { return n.species[i] }
func (n *Network) Reaction(i int) Reaction  { return n.reactions[i].Clone() }
func (n *Network) Environment(i int) string { return n.environments[i] }
func (n *Network) Environments() []string   { return append([]string(nil), n.environments...) }
func (n *Network) AllSpecies() []Species    { return append([]Species(nil), n.species...) }

func (n *Network) AllReactions() []Reaction {
	out := make([]Reaction, len(n.reactions))
	for i, r := range n.reactions {
		out[i] = r.Clone()
	}
	return out
}

func (n *Network) SpeciesLabels() []string {
	labels := make([]string, len(n.species))
	for i, s := range n.species {
		labels[i] = s.Label
	}
	return labels
}

func (n *Network) SpeciesIndex(label string) (int, error) {
	for i, s := range n.species {
		if s.Label == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrUndefinedSpecies, label)
}

func (n *Network) ReactionIndex(label string) (int, error) {
	if label != "" {
		for i, r := range n.reactions {
			if r.Label == label {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w %q", ErrUndefinedReaction, label)
}

func (n *Network) EnvironmentIndex(label string) (int, error) {
	for i, e := range n.environments {
		if e == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrUndefinedEnvironment, label)
}

// Split returns a network whose reactions are the irreversible forward and
// reverse steps of n, in order [fwd0, rev0, fwd1, rev1, ...].
func (n *Network) Split() *Network {
	out := &Network{
		species:      n.AllSpecies(),
		environments: n.Environments(),
		reactions:    make([]Reaction, 0, 2*len(n.reactions)),
	}
	for _, r := range n.reactions {
		fwd, rev := r.Split()
		out.reactions = append(out.reactions, fwd, rev)
	}
	return out
}

// In returns a copy of n with every parameter converted between unit systems.
func (n *Network) In(from, to units.System) *Network {
	out := &Network{
		species:      make([]Species, len(n.species)),
		reactions:    make([]Reaction, len(n.reactions)),
		environments: n.Environments(),
	}
	for i, s := range n.species {
		out.species[i] = s.In(from, to)
	}
	for i, r := range n.reactions {
		out.reactions[i] = r.In(from, to)
	}
	return out
}
