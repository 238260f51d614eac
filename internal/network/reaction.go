package network

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/units"
)

var ErrInvalidEquation = fmt.Errorf("%w: invalid reaction equation", dynamo.ErrValidation)

// Term is one species of one side of a reaction with its stoichiometric
// coefficient.
type Term struct {
	Species string
	Coeff   int
}

// Reaction is a reversible reaction. A nil Environments set means the
// reaction occurs in every environment.
type Reaction struct {
	Label        string
	Substrates   []Term
	Products     []Term
	Kf           Param[float64]
	Kr           Param[float64]
	Environments []string
}

// NewReaction builds a reaction from an equation such as "2 A + B -> C".
func NewReaction(equation string, kf, kr Param[float64]) (Reaction, error) {
	subs, prods, err := ParseEquation(equation)
	if err != nil {
		return Reaction{}, err
	}
	return Reaction{Substrates: subs, Products: prods, Kf: kf, Kr: kr}, nil
}

// ParseEquation parses "substrates -> products". Either side may be empty;
// repeated species on one side are merged.
func ParseEquation(eq string) (substrates, products []Term, err error) {
	sides := strings.Split(eq, "->")
	if len(sides) != 2 {
		return nil, nil, fmt.Errorf("%w: %q must contain exactly one '->'", ErrInvalidEquation, eq)
	}
	if substrates, err = parseSide(sides[0]); err != nil {
		return nil, nil, fmt.Errorf("%w in %q", err, eq)
	}
	if products, err = parseSide(sides[1]); err != nil {
		return nil, nil, fmt.Errorf("%w in %q", err, eq)
	}
	return substrates, products, nil
}

func parseSide(side string) ([]Term, error) {
	if strings.TrimSpace(side) == "" {
		return nil, nil
	}
	var terms []Term
	for _, token := range strings.Split(side, "+") {
		fields := strings.Fields(token)
		t := Term{Coeff: 1}
		switch len(fields) {
		case 1:
			t.Species = fields[0]
		case 2:
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: bad coefficient %q", ErrInvalidEquation, fields[0])
			}
			t.Coeff, t.Species = n, fields[1]
		default:
			return nil, fmt.Errorf("%w: term %q (missing '+'?)", ErrInvalidEquation, strings.TrimSpace(token))
		}
		terms = addTerm(terms, t)
	}
	return terms, nil
}

func addTerm(terms []Term, t Term) []Term {
	for i := range terms {
		if terms[i].Species == t.Species {
			terms[i].Coeff += t.Coeff
			return terms
		}
	}
	return append(terms, t)
}

func coeff(terms []Term, species string) int {
	for _, t := range terms {
		if t.Species == species {
			return t.Coeff
		}
	}
	return 0
}

func order(terms []Term) int {
	n := 0
	for _, t := range terms {
		n += t.Coeff
	}
	return n
}

func (r Reaction) SubstrateCoeff(species string) int { return coeff(r.Substrates, species) }
func (r Reaction) ProductCoeff(species string) int   { return coeff(r.Products, species) }

// Order is the sum of the substrate coefficients.
func (r Reaction) Order() int { return order(r.Substrates) }

// ReverseOrder is the sum of the product coefficients.
func (r Reaction) ReverseOrder() int { return order(r.Products) }

// RateConstantDims returns the dimension of the rate constant of an
// elementary step of the given order, so that k·V·Π(x/V)^n is a rate.
func RateConstantDims(order int) units.Dims {
	return units.Dims{Space: -3 + 3*order, Time: -1, Quantity: 1 - order}
}

func (r Reaction) KfDims() units.Dims { return RateConstantDims(r.Order()) }
func (r Reaction) KrDims() units.Dims { return RateConstantDims(r.ReverseOrder()) }

// AppliesIn reports whether the reaction occurs in environment env.
func (r Reaction) AppliesIn(env string) bool {
	if r.Environments == nil {
		return true
	}
	for _, e := range r.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// Split returns the forward and reverse irreversible steps of r. Both are
// unlabeled, keep the environment restriction and have a zero reverse rate.
func (r Reaction) Split() (fwd, rev Reaction) {
	c := r.Clone()
	fwd = Reaction{Substrates: c.Substrates, Products: c.Products, Kf: c.Kf, Kr: Scalar(0.0), Environments: c.Environments}
	c = r.Clone()
	rev = Reaction{Substrates: c.Products, Products: c.Substrates, Kf: c.Kr, Kr: Scalar(0.0), Environments: c.Environments}
	return fwd, rev
}

// Equilibrium is kf/kr. Defined is false where kr is zero.
type Equilibrium struct {
	K       float64
	Defined bool
}

// EquilibriumConstant returns kf/kr. It is per-environment, over envs, when
// either rate constant is; its dimension is KfDims minus KrDims.
func (r Reaction) EquilibriumConstant(envs []string) Param[Equilibrium] {
	ratio := func(kf, kr float64) Equilibrium {
		if kr == 0 {
			return Equilibrium{}
		}
		return Equilibrium{K: kf / kr, Defined: true}
	}
	if !r.Kf.IsPerEnvironment() && !r.Kr.IsPerEnvironment() {
		return Scalar(ratio(r.Kf.Resolve("", 0), r.Kr.Resolve("", 0)))
	}
	m := make(map[string]Equilibrium, len(envs))
	for _, env := range envs {
		m[env] = ratio(r.Kf.Resolve(env, 0), r.Kr.Resolve(env, 0))
	}
	return PerEnvironment(m)
}

func (r Reaction) EquilibriumDims() units.Dims {
	return r.KfDims().Sub(r.KrDims())
}

// Equation renders the canonical equation string.
func (r Reaction) Equation() string {
	side := func(terms []Term) string {
		parts := make([]string, 0, len(terms))
		for _, t := range terms {
			if t.Coeff == 0 {
				continue
			}
			if t.Coeff == 1 {
				parts = append(parts, t.Species)
			} else {
				parts = append(parts, fmt.Sprintf("%d %s", t.Coeff, t.Species))
			}
		}
		return strings.Join(parts, " + ")
	}
	return strings.TrimSpace(side(r.Substrates) + " -> " + side(r.Products))
}

func (r Reaction) String() string {
	if r.Label != "" {
		return r.Label + ": " + r.Equation()
	}
	return r.Equation()
}

func (r Reaction) Clone() Reaction {
	c := r
	c.Substrates = append([]Term(nil), r.Substrates...)
	c.Products = append([]Term(nil), r.Products...)
	if r.Environments != nil {
		c.Environments = append([]string{}, r.Environments...)
	}
	return c
}

// In converts kf and kr from one unit system to another.
func (r Reaction) In(from, to units.System) Reaction {
	c := r.Clone()
	fd, rd := r.KfDims(), r.KrDims()
	c.Kf = r.Kf.Map(func(v float64) float64 { return units.Convert(v, fd, from, to) })
	c.Kr = r.Kr.Map(func(v float64) float64 { return units.Convert(v, rd, from, to) })
	return c
}
