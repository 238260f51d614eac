// Package dynamo provides core primitives shared by the simulation engines.
//
// The package defines the numerical building blocks used by the
// deterministic engines and the error taxonomy used across rdsim:
//
//   - [State]: flat vector in species-major, cell-minor layout
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [ErrValidation], [ErrConfiguration], [ErrRuntime]: error categories
//   - [ParallelFor]: chunked parallel loop over independent index ranges
//
// # Example
//
//	ode, _ := kinetics.NewODE(sys)
//	integ := integrators.NewRK4()
//	x := integ.Step(ode, dynamo.State(sys.State), 0, 1e-3)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Create one
// integrator per running engine.
package dynamo
