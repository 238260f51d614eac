package metrics

import "math"

// Drift is the largest relative deviation of a species total from its value
// at the first sample. A species absent at the first sample has the absolute
// deviation instead.
type Drift struct {
	name     string
	total    speciesTotal
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(label string, species, cells int) *Drift {
	return &Drift{name: label + ".drift", total: speciesTotal{species, cells}}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(t float64, state []float64) {
	v := d.total.of(state)
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	drift := math.Abs(v - d.initial)
	if d.initial != 0 {
		drift /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, drift)
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
