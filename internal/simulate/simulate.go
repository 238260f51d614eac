// Package simulate runs scripts through engines: it drives the cooperative
// run loop, applies coarse-graining transparently and runs ensembles.
package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/rdsim/internal/coarsegrain"
	"github.com/san-kum/rdsim/internal/engine"
	"github.com/san-kum/rdsim/internal/logging"
	"github.com/san-kum/rdsim/internal/rdsys"
)

// DefaultBudget is the wall-clock length of one cooperative run slice.
const DefaultBudget = 100 * time.Millisecond

type Options struct {
	// Budget bounds each call to Engine.Run. Cancellation and progress are
	// checked between slices.
	Budget time.Duration
	// Progress, when set, receives the progress percentage after each slice.
	Progress func(percent float64)
	Logger   *slog.Logger
}

func (o Options) budget() time.Duration {
	if o.Budget > 0 {
		return o.Budget
	}
	return DefaultBudget
}

// SimulateScript runs script on eng and returns its trajectory. With a
// non-nil indexMap the system is coarse-grained first and the coarse
// trajectory is spread back over the fine cells, so callers see the same
// trajectory shape either way.
//
// Validation and configuration errors are returned before any iteration.
// A runtime failure is not an error: the partial trajectory is returned with
// Incomplete set. When ctx is cancelled the engine is finalized and the
// context error returned.
func SimulateScript(ctx context.Context, script *rdsys.Script, eng engine.Engine, indexMap []int, opts Options) (*rdsys.Trajectory, error) {
	log := logging.OrDiscard(opts.Logger)

	if indexMap != nil {
		coarse, err := coarsegrain.CoarsegrainSystem(script.System, indexMap)
		if err != nil {
			return nil, err
		}
		log.Debug("coarse-grained system", "cells", script.System.CellCount(), "nodes", coarse.CellCount())
		cs := script.Copy()
		cs.System = coarse
		tr, err := SimulateScript(ctx, cs, eng, nil, opts)
		if err != nil {
			return nil, err
		}
		fine, err := coarsegrain.UncoarsegrainTrajectory(tr, script.System, indexMap)
		if err != nil {
			return nil, err
		}
		fine.Script = script.Copy()
		return fine, nil
	}

	if err := eng.Setup(script); err != nil {
		return nil, err
	}
	defer eng.Finalize()

	log.Info("simulation started",
		"engine", eng.Name(),
		"option", eng.Option(),
		"cells", script.System.CellCount(),
		"species", script.System.SpeciesCount(),
		"t_max", script.TMax,
	)
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			log.Warn("simulation cancelled", "engine", eng.Name(), "progress", eng.Progress())
			return nil, fmt.Errorf("simulation cancelled at %.1f%%: %w", eng.Progress(), err)
		}
		running, err := eng.Run(opts.budget())
		if err != nil {
			return nil, err
		}
		p := eng.Progress()
		log.Log(ctx, logging.LevelTrace, "run slice", "progress", p)
		if opts.Progress != nil {
			opts.Progress(p)
		}
		if !running {
			break
		}
	}

	tr, err := eng.Output()
	if err != nil {
		return nil, err
	}
	if eng.Status() == engine.Failed {
		log.Warn("simulation failed", "engine", eng.Name(), "err", eng.Err(), "samples", tr.NSamples())
	} else {
		log.Info("simulation complete", "engine", eng.Name(), "samples", tr.NSamples(), "elapsed", time.Since(start))
	}
	return tr, nil
}
