package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// RK4 is the classic fourth-order Runge-Kutta method. It reuses its stage
// buffers between steps and is not safe for concurrent use.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.ensureScratch(len(x))

	copy(r.k1, dyn.Derive(x, t))
	floats.AddScaledTo(r.scratch, x, dt/2, r.k1)
	copy(r.k2, dyn.Derive(r.scratch, t+dt/2))
	floats.AddScaledTo(r.scratch, x, dt/2, r.k2)
	copy(r.k3, dyn.Derive(r.scratch, t+dt/2))
	floats.AddScaledTo(r.scratch, x, dt, r.k3)
	copy(r.k4, dyn.Derive(r.scratch, t+dt))

	out := make(dynamo.State, len(x))
	dt6 := dt / 6
	for i := range x {
		out[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out
}
