// Package engine drives simulations through a common lifecycle:
// Uninitialized, then Running, then Complete or Failed. Engines differ only
// in how one iteration advances the state.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
)

type Status int

const (
	Uninitialized Status = iota
	Running
	Complete
	Failed
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

var (
	ErrNotRunning   = fmt.Errorf("%w: engine is not running", dynamo.ErrValidation)
	ErrStillRunning = fmt.Errorf("%w: engine is still running", dynamo.ErrValidation)
	ErrFinalized    = fmt.Errorf("%w: engine was finalized", dynamo.ErrValidation)
	ErrAlreadySetup = fmt.Errorf("%w: engine was already set up", dynamo.ErrValidation)
)

// Engine runs one Script. Iterate, IterateN and Run report whether the
// simulation is still running. A failure while running does not surface as
// an error from them: the engine moves to Failed, Err returns the cause and
// Output returns the samples taken so far, flagged incomplete.
type Engine interface {
	Name() string
	Option() string
	Setup(script *rdsys.Script) error
	Iterate() (bool, error)
	IterateN(n int) (bool, error)
	Run(budget time.Duration) (bool, error)
	Progress() float64
	Sample() error
	Status() Status
	Err() error
	Output() (*rdsys.Trajectory, error)
	Finalize() error
}

// backend is what an engine implements on top of machine.
type backend interface {
	setup(script *rdsys.Script) error
	// step advances one iteration and reports whether the simulation
	// continues.
	step() (bool, error)
	sample()
	samples() (t, data []float64)
	time() float64
	release()
}

// machine is the lifecycle shared by every engine.
type machine struct {
	name, option string
	b            backend

	script    *rdsys.Script
	status    Status
	err       error
	finalized bool
	steps     int
	elapsed   float64
}

func newMachine(name, option string, b backend) machine {
	return machine{name: name, option: option, b: b}
}

func (m *machine) Name() string   { return m.name }
func (m *machine) Option() string { return m.option }
func (m *machine) Status() Status { return m.status }
func (m *machine) Err() error     { return m.err }

// Setup validates script, converts its system to the script units and
// prepares the backend. The initial sample is taken when the sampling policy
// asks for one at t = 0.
func (m *machine) Setup(script *rdsys.Script) error {
	if m.finalized {
		return ErrFinalized
	}
	if m.status != Uninitialized {
		return ErrAlreadySetup
	}
	if err := script.Validate(); err != nil {
		return err
	}
	resolved := script.Resolved()
	if err := m.b.setup(resolved); err != nil {
		return fmt.Errorf("%s setup: %w", m.name, err)
	}
	m.script = resolved
	m.status = Running
	return nil
}

func (m *machine) usable() error {
	if m.finalized {
		return ErrFinalized
	}
	if m.status != Running {
		return ErrNotRunning
	}
	return nil
}

func (m *machine) Iterate() (bool, error) {
	if err := m.usable(); err != nil {
		return false, err
	}
	m.steps++
	running, err := m.b.step()
	m.elapsed = m.b.time()
	if err != nil {
		m.status = Failed
		m.err = &dynamo.SimulationError{Step: m.steps, Time: m.elapsed, Wrapped: err}
		return false, nil
	}
	if !running {
		m.status = Complete
	}
	return running, nil
}

func (m *machine) IterateN(n int) (bool, error) {
	if err := m.usable(); err != nil {
		return false, err
	}
	for i := 0; i < n && m.status == Running; i++ {
		if _, err := m.Iterate(); err != nil {
			return false, err
		}
	}
	return m.status == Running, nil
}

// Run iterates until the simulation stops running or budget has elapsed,
// checking the clock between iterations. At least one iteration is done.
func (m *machine) Run(budget time.Duration) (bool, error) {
	if err := m.usable(); err != nil {
		return false, err
	}
	start := time.Now()
	for {
		running, err := m.Iterate()
		if err != nil || !running || time.Since(start) >= budget {
			return running, err
		}
	}
}

// Progress is the simulated time as a percentage of the termination time.
func (m *machine) Progress() float64 {
	if m.script == nil || !(m.script.TMax > 0) {
		return 0
	}
	if m.status == Complete {
		return 100
	}
	return math.Min(100, 100*m.elapsed/m.script.TMax)
}

// Sample records the current state regardless of the sampling policy.
func (m *machine) Sample() error {
	if err := m.usable(); err != nil {
		return err
	}
	m.b.sample()
	return nil
}

// Output assembles the trajectory of a Complete or Failed simulation. Times
// and quantities are expressed in the script units.
func (m *machine) Output() (*rdsys.Trajectory, error) {
	switch {
	case m.finalized:
		return nil, ErrFinalized
	case m.status == Uninitialized:
		return nil, ErrNotRunning
	case m.status == Running:
		return nil, ErrStillRunning
	}
	t, data := m.b.samples()
	return &rdsys.Trajectory{
		T:          t,
		Data:       data,
		System:     m.script.System.Copy(),
		Script:     m.script.Copy(),
		Engine:     m.name,
		Option:     m.option,
		Incomplete: m.status == Failed,
		Units:      m.script.Units,
	}, nil
}

// Finalize releases the backend. The engine is unusable afterwards.
func (m *machine) Finalize() error {
	if m.finalized {
		return ErrFinalized
	}
	m.finalized = true
	m.b.release()
	return nil
}
