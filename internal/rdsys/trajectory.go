package rdsys

import (
	"fmt"
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

var ErrTrajectoryShape = fmt.Errorf("%w: trajectory data does not match its sample count", dynamo.ErrValidation)

// Trajectory is the sampled output of a simulation. Data is sample-major,
// then species-major, then cell-minor. IndexMap is set when the trajectory
// was reconstructed from a coarse-grained run. Incomplete marks the partial
// output of a failed run.
type Trajectory struct {
	T          []float64
	Data       []float64
	System     *System
	Script     *Script
	Engine     string
	Option     string
	IndexMap   []int
	Incomplete bool
	Units      units.System
}

func (t *Trajectory) NSamples() int { return len(t.T) }

// StateSize is the length of one sampled state.
func (t *Trajectory) StateSize() int {
	return t.System.SpeciesCount() * t.System.CellCount()
}

func (t *Trajectory) Validate() error {
	if len(t.Data) != t.NSamples()*t.StateSize() {
		return fmt.Errorf("%w: %d values for %d samples of size %d", ErrTrajectoryShape, len(t.Data), t.NSamples(), t.StateSize())
	}
	return nil
}

// StateAt returns a copy of sample k.
func (t *Trajectory) StateAt(k int) []float64 {
	n := t.StateSize()
	return append([]float64(nil), t.Data[k*n:(k+1)*n]...)
}

// SpeciesSeries returns the quantity of a species in one cell at every sample.
func (t *Trajectory) SpeciesSeries(label string, cell int) ([]float64, error) {
	si, err := t.System.Network.SpeciesIndex(label)
	if err != nil {
		return nil, err
	}
	if err := space.CheckIndex(t.System.Space, cell); err != nil {
		return nil, err
	}
	n := t.StateSize()
	off := t.System.Index(si, cell)
	out := make([]float64, t.NSamples())
	for k := range out {
		out[k] = t.Data[k*n+off]
	}
	return out, nil
}

// Totals returns the quantity of a species summed over all cells, per sample.
func (t *Trajectory) Totals(label string) ([]float64, error) {
	si, err := t.System.Network.SpeciesIndex(label)
	if err != nil {
		return nil, err
	}
	n, cells := t.StateSize(), t.System.CellCount()
	out := make([]float64, t.NSamples())
	for k := range out {
		base := k*n + si*cells
		for c := 0; c < cells; c++ {
			out[k] += t.Data[base+c]
		}
	}
	return out, nil
}

// SampleIndex returns the index of the sample closest to time, or -1 for an
// empty trajectory.
func (t *Trajectory) SampleIndex(time float64) int {
	best, bestDist := -1, math.Inf(1)
	for k, ts := range t.T {
		if d := math.Abs(ts - time); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
