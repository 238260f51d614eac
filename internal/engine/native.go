package engine

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/native"
	"github.com/san-kum/rdsim/internal/rdsys"
)

// NativeEngine runs the flat native backend with one of native.Options.
type NativeEngine struct {
	machine
	sim *native.Simulation
}

func NewNativeEngine(option string) *NativeEngine {
	e := &NativeEngine{}
	e.machine = newMachine(option, option, e)
	return e
}

func (e *NativeEngine) setup(script *rdsys.Script) error {
	d, err := native.Describe(script, e.option)
	if err != nil {
		return err
	}
	sim, err := native.Initialize(d)
	if err != nil {
		return fmt.Errorf("option %q: %w", e.option, err)
	}
	e.sim = sim
	return nil
}

func (e *NativeEngine) step() (bool, error)          { return e.sim.Iterate(), nil }
func (e *NativeEngine) sample()                      { e.sim.Sample() }
func (e *NativeEngine) samples() (t, data []float64) { return e.sim.Samples() }
func (e *NativeEngine) time() float64                { return e.sim.Time() }
func (e *NativeEngine) release()                     { e.sim = nil }
