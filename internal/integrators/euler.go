package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdsim/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	out := make(dynamo.State, len(x))
	floats.AddScaledTo(out, x, dt, dyn.Derive(x, t))
	return out
}
