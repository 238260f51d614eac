package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an ODE right-hand side.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// AdaptiveIntegrator returns the proposed next step size alongside the new
// state. A rejected step returns ErrStepRejected together with the smaller
// step size to retry with.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

// StepConfig bounds the adaptive stepping of deterministic engines.
type StepConfig struct {
	Tolerance float64
	MaxDt     float64
	MinDt     float64
}

func DefaultStepConfig() StepConfig {
	return StepConfig{
		Tolerance: 1e-6,
		MaxDt:     0,
		MinDt:     1e-12,
	}
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
