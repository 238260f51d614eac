package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/integrators"
	"github.com/san-kum/rdsim/internal/kinetics"
	"github.com/san-kum/rdsim/internal/rdsys"
)

// ODEEngine integrates the compiled reaction-diffusion equations with one
// of the integrators package methods. Adaptive methods start from the script
// time step and adjust it within Steps, never stepping past the next
// requested sample time or the termination time; the others use the script
// time step.
type ODEEngine struct {
	machine
	clock
	Steps dynamo.StepConfig

	ode   *kinetics.ODE
	integ dynamo.Integrator
	dt    float64
}

// NewODEEngine returns an engine for method, one of integrators.Methods.
func NewODEEngine(method string) (*ODEEngine, error) {
	integ, err := integrators.New(method)
	if err != nil {
		return nil, err
	}
	e := &ODEEngine{Steps: dynamo.DefaultStepConfig(), integ: integ}
	e.machine = newMachine("ode-"+method, method, e)
	return e, nil
}

func (e *ODEEngine) setup(script *rdsys.Script) error {
	ode, err := kinetics.NewODE(script.System)
	if err != nil {
		return err
	}
	if !(e.Steps.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance %g", dynamo.ErrConfiguration, e.Steps.Tolerance)
	}
	e.ode = ode
	e.dt = script.TimeStep
	return e.start(script)
}

func (e *ODEEngine) step() (bool, error) {
	adaptive, ok := e.integ.(dynamo.AdaptiveIntegrator)
	if !ok {
		e.x = e.integ.Step(e.ode, e.x, e.t, e.dt)
		if !dynamo.State(e.x).IsValid() {
			return false, dynamo.ErrInvalidState
		}
		return e.advance(e.dt), nil
	}

	for {
		h, end := e.dt, e.horizon()
		clamped := end-e.t <= h
		if clamped {
			h = end - e.t
		}
		next, dt, err := adaptive.StepAdaptive(e.ode, e.x, e.t, h, e.Steps.Tolerance)
		if errors.Is(err, dynamo.ErrStepRejected) {
			if !(dt >= e.Steps.MinDt) {
				return false, fmt.Errorf("%w: dt=%g", dynamo.ErrStepTooSmall, dt)
			}
			e.dt = dt
			continue
		}
		if err != nil {
			return false, err
		}
		if !dynamo.State(next).IsValid() {
			return false, dynamo.ErrInvalidState
		}
		e.x = next
		if !clamped {
			e.dt = dt
		}
		if e.Steps.MaxDt > 0 {
			e.dt = math.Min(e.dt, e.Steps.MaxDt)
		}
		if clamped {
			return e.advanceTo(end), nil
		}
		return e.advance(h), nil
	}
}

func (e *ODEEngine) release() { e.ode = nil }
