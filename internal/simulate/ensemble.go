package simulate

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/engine"
	"github.com/san-kum/rdsim/internal/rdsys"
)

// Ensemble runs n independent copies of script in parallel, copy i using
// seed script.Seed+i and its own engine from newEngine. Results are in seed
// order. The first error cancels the remaining runs. Progress reporting is
// disabled for the members.
func Ensemble(ctx context.Context, script *rdsys.Script, newEngine func() (engine.Engine, error), n int, indexMap []int, opts Options) ([]*rdsys.Trajectory, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: ensemble size %d", dynamo.ErrValidation, n)
	}
	opts.Progress = nil

	out := make([]*rdsys.Trajectory, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			s := script.Copy()
			s.Seed = script.Seed + uint64(i)
			tr, err := SimulateScript(gctx, s, eng, indexMap, opts)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			out[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
