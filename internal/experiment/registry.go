package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/engine"
)

// DefaultEngine is used when no engine is named.
const DefaultEngine = "euler"

var ErrUnknownEngine = fmt.Errorf("%w: unknown engine", dynamo.ErrConfiguration)

type Factory func() (engine.Engine, error)

type entry struct {
	factory     Factory
	description string
}

type Registry struct {
	engines map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{engines: make(map[string]entry)}

	for _, opt := range []struct{ name, desc string }{
		{"gillespie", "exact stochastic simulation (direct method)"},
		{"tauleap", "approximate stochastic simulation with Poisson leaps"},
		{"euler", "deterministic explicit Euler on the native backend"},
	} {
		name := opt.name
		r.Register(name, opt.desc, func() (engine.Engine, error) { return engine.NewNativeEngine(name), nil })
	}

	r.Register("kinetics", "deterministic Euler driven by the rate functions", func() (engine.Engine, error) {
		return engine.NewKineticsEngine(), nil
	})
	for _, method := range []string{"euler", "rk4", "rk45"} {
		desc := "ODE integration with " + method
		if method == "rk45" {
			desc = "adaptive Dormand-Prince ODE integration"
		}
		r.Register("ode-"+method, desc, func() (engine.Engine, error) { return engine.NewODEEngine(method) })
	}

	return r
}

// Register adds or replaces an engine factory.
func (r *Registry) Register(name, description string, f Factory) {
	r.engines[name] = entry{factory: f, description: description}
}

// New builds a fresh engine. An empty name selects DefaultEngine.
func (r *Registry) New(name string) (engine.Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return e.factory()
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (Factory, error) {
	if name == "" {
		name = DefaultEngine
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return e.factory, nil
}

func (r *Registry) Description(name string) string {
	return r.engines[name].description
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
