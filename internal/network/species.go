package network

import "github.com/san-kum/rdsim/internal/units"

// Species is a chemical species. D is a diffusion coefficient (L^2 T^-1),
// Density a default density (N L^-3) used to build initial states.
type Species struct {
	Label     string         `yaml:"label"`
	D         Param[float64] `yaml:"D"`
	Density   Param[float64] `yaml:"density"`
	Chemostat Param[bool]    `yaml:"chemostat"`
}

// In converts D and Density from one unit system to another.
func (s Species) In(from, to units.System) Species {
	s.D = s.D.Map(func(v float64) float64 { return units.Convert(v, units.Diffusion, from, to) })
	s.Density = s.Density.Map(func(v float64) float64 { return units.Convert(v, units.Density, from, to) })
	return s
}
