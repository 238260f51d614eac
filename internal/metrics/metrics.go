// Package metrics evaluates scalar summaries over a trajectory.
package metrics

import (
	"github.com/san-kum/rdsim/internal/rdsys"
)

// Metric observes the samples of one trajectory in order.
type Metric interface {
	Name() string
	Observe(t float64, state []float64)
	Value() float64
	Reset()
}

// Default returns the final total, peak total and drift of every species of
// sys.
func Default(sys *rdsys.System) []Metric {
	var out []Metric
	n := sys.CellCount()
	for i, label := range sys.Network.SpeciesLabels() {
		out = append(out,
			NewFinalTotal(label, i, n),
			NewPeakTotal(label, i, n),
			NewDrift(label, i, n),
		)
	}
	return out
}

// Evaluate resets each metric, feeds it every sample of tr and returns the
// values by metric name.
func Evaluate(tr *rdsys.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
	}
	for k := 0; k < tr.NSamples(); k++ {
		state := tr.StateAt(k)
		for _, m := range ms {
			m.Observe(tr.T[k], state)
		}
	}
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
