package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// speciesTotal sums one species over the cells of a state.
type speciesTotal struct {
	species, cells int
}

func (s speciesTotal) of(state []float64) float64 {
	lo := s.species * s.cells
	return floats.Sum(state[lo : lo+s.cells])
}

type FinalTotal struct {
	name  string
	total speciesTotal
	value float64
}

func NewFinalTotal(label string, species, cells int) *FinalTotal {
	return &FinalTotal{name: label + ".final", total: speciesTotal{species, cells}}
}

func (f *FinalTotal) Name() string { return f.name }

func (f *FinalTotal) Observe(t float64, state []float64) {
	f.value = f.total.of(state)
}

func (f *FinalTotal) Value() float64 { return f.value }
func (f *FinalTotal) Reset()         { f.value = 0 }

type PeakTotal struct {
	name    string
	total   speciesTotal
	peak    float64
	samples int
}

func NewPeakTotal(label string, species, cells int) *PeakTotal {
	return &PeakTotal{name: label + ".peak", total: speciesTotal{species, cells}}
}

func (p *PeakTotal) Name() string { return p.name }

func (p *PeakTotal) Observe(t float64, state []float64) {
	v := p.total.of(state)
	if p.samples == 0 {
		p.peak = v
	}
	p.peak = math.Max(p.peak, v)
	p.samples++
}

func (p *PeakTotal) Value() float64 { return p.peak }

func (p *PeakTotal) Reset() {
	p.peak = 0
	p.samples = 0
}
