package units

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/unit"
)

// Value is an immutable dimension-tagged quantity. The zero Value is a
// dimensionless zero.
type Value struct {
	u *unit.Unit
}

// New tags v, expressed in sys, with dimension d.
func New(v float64, d Dims, sys System) Value {
	return fromSI(v*sys.Factor(d), d)
}

// Zero returns a zero of dimension d.
func Zero(d Dims) Value {
	return fromSI(0, d)
}

func fromSI(v float64, d Dims) Value {
	dims := unit.Dimensions{}
	if d.Space != 0 {
		dims[unit.LengthDim] = d.Space
	}
	if d.Time != 0 {
		dims[unit.TimeDim] = d.Time
	}
	if d.Quantity != 0 {
		dims[unit.MoleDim] = d.Quantity
	}
	return Value{u: unit.New(v, dims)}
}

func (v Value) base() *unit.Unit {
	if v.u == nil {
		return unit.New(0, nil)
	}
	return v.u
}

// clone copies the underlying unit since gonum's arithmetic mutates its
// receiver.
func (v Value) clone() *unit.Unit {
	b := v.base()
	return unit.New(b.Value(), b.Dimensions())
}

func (v Value) Dims() Dims {
	d := v.base().Dimensions()
	return Dims{Space: d[unit.LengthDim], Time: d[unit.TimeDim], Quantity: d[unit.MoleDim]}
}

// SI returns the magnitude in SI base units.
func (v Value) SI() float64 {
	return v.base().Value()
}

// In expresses v as a plain number in sys.
func (v Value) In(sys System) float64 {
	return v.SI() / sys.Factor(v.Dims())
}

func (v Value) IsZero() bool {
	return v.SI() == 0
}

func (v Value) Mul(o Value) Value {
	u := v.clone()
	u.Mul(o.base())
	return Value{u: u}
}

func (v Value) Div(o Value) Value {
	u := v.clone()
	u.Div(o.base())
	return Value{u: u}
}

// Add panics when the dimensions differ.
func (v Value) Add(o Value) Value {
	if v.Dims() != o.Dims() {
		panic(fmt.Sprintf("units: cannot add %s to %s", o.Dims(), v.Dims()))
	}
	return fromSI(v.SI()+o.SI(), v.Dims())
}

// Sub panics when the dimensions differ.
func (v Value) Sub(o Value) Value {
	return v.Add(o.Scale(-1))
}

func (v Value) Scale(f float64) Value {
	return fromSI(v.SI()*f, v.Dims())
}

func (v Value) Pow(n int) Value {
	return fromSI(math.Pow(v.SI(), float64(n)), v.Dims().Scale(n))
}

// Cbrt returns the cube root. Every exponent of v must be a multiple of 3.
func (v Value) Cbrt() (Value, error) {
	d := v.Dims()
	if d.Space%3 != 0 || d.Time%3 != 0 || d.Quantity%3 != 0 {
		return Value{}, fmt.Errorf("units: cube root of %s", d)
	}
	return fromSI(math.Cbrt(v.SI()), Dims{Space: d.Space / 3, Time: d.Time / 3, Quantity: d.Quantity / 3}), nil
}

func (v Value) String() string {
	return fmt.Sprintf("%g [%s]", v.SI(), v.Dims())
}

// Array is a vector of numbers sharing one dimension and one unit system.
type Array struct {
	Values []float64
	Dims   Dims
	System System
}

func (a Array) At(i int) Value {
	return New(a.Values[i], a.Dims, a.System)
}

// In returns a converted copy of a.
func (a Array) In(sys System) Array {
	out := Array{Values: append([]float64(nil), a.Values...), Dims: a.Dims, System: sys}
	ConvertSlice(out.Values, a.Dims, a.System, sys)
	return out
}
