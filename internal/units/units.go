// Package units implements the unit systems and dimension-tagged values used
// for rates, geometry and quantities.
//
// Values are stored in SI base units (metre, second, mole) on top of
// gonum's unit package. A System names the units in which plain float64
// numbers of a model are expressed and converts them to and from Values.
package units

import (
	"errors"
	"fmt"
)

// Avogadro is the number of molecules in one mole.
const Avogadro = 6.02214076e23

var ErrUnknownUnit = errors.New("units: unknown unit symbol")

var (
	spaceFactors = map[string]float64{
		"m":  1,
		"dm": 1e-1,
		"cm": 1e-2,
		"mm": 1e-3,
		"µm": 1e-6,
		"um": 1e-6,
		"nm": 1e-9,
	}
	timeFactors = map[string]float64{
		"s":   1,
		"ms":  1e-3,
		"µs":  1e-6,
		"us":  1e-6,
		"ns":  1e-9,
		"min": 60,
		"h":   3600,
	}
	quantityFactors = map[string]float64{
		"mol":      1,
		"mmol":     1e-3,
		"µmol":     1e-6,
		"umol":     1e-6,
		"nmol":     1e-9,
		"molecule": 1 / Avogadro,
	}
)

// System is a choice of space, time and quantity units.
type System struct {
	Space    string `yaml:"space" json:"space"`
	Time     string `yaml:"time" json:"time"`
	Quantity string `yaml:"quantity" json:"quantity"`
}

func DefaultSystem() System {
	return System{Space: "µm", Time: "s", Quantity: "molecule"}
}

func (s System) Validate() error {
	if _, ok := spaceFactors[s.Space]; !ok {
		return fmt.Errorf("%w: space %q", ErrUnknownUnit, s.Space)
	}
	if _, ok := timeFactors[s.Time]; !ok {
		return fmt.Errorf("%w: time %q", ErrUnknownUnit, s.Time)
	}
	if _, ok := quantityFactors[s.Quantity]; !ok {
		return fmt.Errorf("%w: quantity %q", ErrUnknownUnit, s.Quantity)
	}
	return nil
}

func (s System) String() string {
	return fmt.Sprintf("space=%s time=%s quantity=%s", s.Space, s.Time, s.Quantity)
}

// WithQuantity returns a copy of s using another quantity unit.
func (s System) WithQuantity(q string) System {
	s.Quantity = q
	return s
}

// Factor returns the multiplier that takes a number of dimension d expressed
// in s to SI base units. s must be valid.
func (s System) Factor(d Dims) float64 {
	sp, ok1 := spaceFactors[s.Space]
	tm, ok2 := timeFactors[s.Time]
	qt, ok3 := quantityFactors[s.Quantity]
	if !ok1 || !ok2 || !ok3 {
		panic(fmt.Sprintf("units: invalid system %s", s))
	}
	return ipow(sp, d.Space) * ipow(tm, d.Time) * ipow(qt, d.Quantity)
}

// Convert re-expresses v, of dimension d, from one system to another.
func Convert(v float64, d Dims, from, to System) float64 {
	if from == to {
		return v
	}
	return v * from.Factor(d) / to.Factor(d)
}

// ConvertSlice converts every entry of vs in place.
func ConvertSlice(vs []float64, d Dims, from, to System) {
	if from == to {
		return
	}
	f := from.Factor(d) / to.Factor(d)
	for i := range vs {
		vs[i] *= f
	}
}

func ipow(x float64, n int) float64 {
	if n < 0 {
		return 1 / ipow(x, -n)
	}
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}
