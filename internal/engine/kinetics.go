package engine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/kinetics"
	"github.com/san-kum/rdsim/internal/rdsys"
)

// KineticsEngine integrates the reference derivative of the kinetics
// package with explicit Euler steps of the script time step. It is slow and
// meant as a reference for the other engines.
type KineticsEngine struct {
	machine
	clock
	sys *rdsys.System
	dt  float64
}

func NewKineticsEngine() *KineticsEngine {
	e := &KineticsEngine{}
	e.machine = newMachine("kinetics", "", e)
	return e
}

func (e *KineticsEngine) setup(script *rdsys.Script) error {
	e.sys = script.System
	e.dt = script.TimeStep
	return e.start(script)
}

func (e *KineticsEngine) step() (bool, error) {
	d, err := kinetics.DStateDt(e.sys, e.x, true)
	if err != nil {
		return false, err
	}
	floats.AddScaled(e.x, e.dt, d.Values)
	if !dynamo.State(e.x).IsValid() {
		return false, dynamo.ErrInvalidState
	}
	return e.advance(e.dt), nil
}

func (e *KineticsEngine) release() { e.sys = nil }
