package dynamo

import "errors"

// Error categories. Package level sentinels wrap one of these so callers can
// test either the precise condition or its category with errors.Is.
var (
	// ErrValidation marks malformed input detected at construction or at the
	// start of a call.
	ErrValidation = errors.New("rdsim: validation error")

	// ErrConfiguration marks an engine setup that cannot be honoured, such as
	// an unknown algorithm or an unsupported boundary condition.
	ErrConfiguration = errors.New("rdsim: configuration error")

	// ErrRuntime marks a failure while a simulation is running.
	ErrRuntime = errors.New("rdsim: runtime failure")
)

// Runtime failures raised by the deterministic steppers.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected indicates the local error estimate exceeded the tolerance.
	ErrStepRejected = errors.New("dynamo: step rejected")
)

// SimulationError wraps a runtime failure with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return SimError{Time: e.Time, Step: e.Step, Message: e.Wrapped.Error()}.Error()
}

func (e *SimulationError) Unwrap() []error {
	return []error{ErrRuntime, e.Wrapped}
}
