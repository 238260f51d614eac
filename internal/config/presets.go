package config

import (
	"sort"

	"github.com/san-kum/rdsim/internal/network"
)

func sampleTimes(step float64, n int) []float64 {
	ts := make([]float64, n+1)
	for i := range ts {
		ts[i] = float64(i) * step
	}
	return ts
}

var presets = map[string]func() *File{
	"decay": func() *File {
		f := DefaultFile()
		f.Engine = "gillespie"
		f.Species = []network.Species{{Label: "A", Density: network.Scalar(1000.0)}}
		f.Reactions = []ReactionConfig{{Equation: "A ->", Kf: network.Scalar(0.1)}}
		f.Space.Grid = &GridConfig{Shape: []int{1}, CellVol: 1}
		f.Script.TSample = sampleTimes(5, 10)
		f.Script.TimeStep = 1e-2
		return f
	},
	"diffusion": func() *File {
		f := DefaultFile()
		f.Engine = "euler"
		f.Species = []network.Species{{Label: "A", D: network.Scalar(1.0)}}
		f.Space.Grid = &GridConfig{Shape: []int{20}, CellVol: 1}
		f.Initial = []InitialConfig{{Species: "A", Cells: []int{0}, Quantity: 1000}}
		f.Script.TSample = []float64{0, 1, 5, 10, 20}
		f.Script.TimeStep = 1e-2
		return f
	},
	"dimerization": func() *File {
		f := DefaultFile()
		f.Engine = "ode-rk45"
		f.Species = []network.Species{
			{Label: "A", Density: network.Scalar(500.0)},
			{Label: "B"},
		}
		f.Reactions = []ReactionConfig{{Equation: "2 A -> B", Kf: network.Scalar(1e-3), Kr: network.Scalar(0.1)}}
		f.Space.Grid = &GridConfig{Shape: []int{1}, CellVol: 1}
		f.Script.TSample = sampleTimes(1, 20)
		f.Script.TimeStep = 1e-2
		return f
	},
	"patches": func() *File {
		f := DefaultFile()
		f.Engine = "tauleap"
		f.Species = []network.Species{
			{Label: "A", D: network.Scalar(0.5), Density: network.Scalar(10.0)},
			{Label: "B", D: network.Scalar(0.1)},
		}
		f.Reactions = []ReactionConfig{{Equation: "A -> B", Kf: network.Scalar(0.05)}}
		f.Space.Grid = &GridConfig{Shape: []int{5, 5}, CellVol: 1}
		f.IndexMap = []int{
			0, 0, 1, 1, 1,
			0, 0, 0, 1, 1,
			0, 0, 0, 2, 2,
			3, 3, 2, 2, 2,
			3, 3, 2, 2, 2,
		}
		f.Script.TSample = []float64{0, 1, 2, 5, 10}
		f.Script.TimeStep = 1e-2
		return f
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *File {
	fn, ok := presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
