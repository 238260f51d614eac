package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/simulate"
)

type Config struct {
	Engine   string
	Replicas int
	IndexMap []int
}

// Experiment binds a script to an engine choice and runs it, optionally as
// an ensemble of replicas with consecutive seeds.
type Experiment struct {
	cfg      Config
	script   *rdsys.Script
	registry *Registry
}

func New(script *rdsys.Script, cfg Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if cfg.Replicas < 1 {
		cfg.Replicas = 1
	}
	return &Experiment{cfg: cfg, script: script, registry: registry}
}

func (e *Experiment) Config() Config { return e.cfg }

// Run returns one trajectory per replica.
func (e *Experiment) Run(ctx context.Context, opts simulate.Options) ([]*rdsys.Trajectory, error) {
	if e.script == nil {
		return nil, fmt.Errorf("%w: experiment has no script", dynamo.ErrValidation)
	}
	factory, err := e.registry.Factory(e.cfg.Engine)
	if err != nil {
		return nil, err
	}

	if e.cfg.Replicas > 1 {
		return simulate.Ensemble(ctx, e.script, factory, e.cfg.Replicas, e.cfg.IndexMap, opts)
	}

	eng, err := factory()
	if err != nil {
		return nil, err
	}
	tr, err := simulate.SimulateScript(ctx, e.script, eng, e.cfg.IndexMap, opts)
	if err != nil {
		return nil, err
	}
	return []*rdsys.Trajectory{tr}, nil
}
