// Package config reads simulation scripts from YAML files, provides the
// built-in presets and loads process environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

const (
	DefaultEngine           = "euler"
	DefaultTimeStep         = rdsys.DefaultTimeStep
	DefaultSamplingPolicy   = string(rdsys.OnTSample)
	DefaultSamplingInterval = rdsys.DefaultSamplingInterval
)

var (
	ErrInvalidFile = fmt.Errorf("%w: invalid script file", dynamo.ErrConfiguration)
	ErrSpace       = fmt.Errorf("%w: exactly one of grid or graph is required", ErrInvalidFile)
	ErrInitial     = fmt.Errorf("%w: invalid initial quantity", ErrInvalidFile)
)

// File is the YAML form of a script together with the engine that should run
// it and an optional coarse-graining map.
type File struct {
	Engine       string            `yaml:"engine"`
	Units        units.System      `yaml:"units"`
	Environments []string          `yaml:"environments,omitempty"`
	Species      []network.Species `yaml:"species"`
	Reactions    []ReactionConfig  `yaml:"reactions,omitempty"`
	Space        SpaceConfig       `yaml:"space"`
	Initial      []InitialConfig   `yaml:"initial,omitempty"`
	Script       ScriptConfig      `yaml:"script"`
	IndexMap     []int             `yaml:"index_map,omitempty"`
}

type ReactionConfig struct {
	Label        string                 `yaml:"label,omitempty"`
	Equation     string                 `yaml:"equation"`
	Kf           network.Param[float64] `yaml:"kf"`
	Kr           network.Param[float64] `yaml:"kr"`
	Environments []string               `yaml:"environments,omitempty"`
}

type SpaceConfig struct {
	Grid  *GridConfig  `yaml:"grid,omitempty"`
	Graph *GraphConfig `yaml:"graph,omitempty"`
}

// GridConfig describes a box of cells. Missing shape entries are 1, and a
// single boundary entry applies to every axis.
type GridConfig struct {
	Shape      []int    `yaml:"shape"`
	CellVol    float64  `yaml:"cell_vol"`
	Boundaries []string `yaml:"boundaries,omitempty"`
	Env        []int    `yaml:"env,omitempty"`
}

type GraphConfig struct {
	Nodes []space.Node `yaml:"nodes"`
	Edges []space.Edge `yaml:"edges"`
}

// InitialConfig overrides the density-derived quantity of a species in some
// cells, or in every cell when Cells is empty.
type InitialConfig struct {
	Species   string  `yaml:"species"`
	Cells     []int   `yaml:"cells,omitempty"`
	Quantity  float64 `yaml:"quantity"`
	Chemostat *bool   `yaml:"chemostat,omitempty"`
}

type ScriptConfig struct {
	TSample          []float64     `yaml:"t_sample"`
	TimeStep         float64       `yaml:"time_step"`
	TMax             float64       `yaml:"t_max,omitempty"`
	SamplingPolicy   string        `yaml:"sampling_policy"`
	SamplingInterval float64       `yaml:"sampling_interval"`
	Seed             uint64        `yaml:"seed,omitempty"`
	Units            *units.System `yaml:"units,omitempty"`
}

func DefaultFile() *File {
	return &File{
		Engine: DefaultEngine,
		Units:  units.DefaultSystem(),
		Script: ScriptConfig{
			TimeStep:         DefaultTimeStep,
			SamplingPolicy:   DefaultSamplingPolicy,
			SamplingInterval: DefaultSamplingInterval,
		},
	}
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a script file over the defaults.
func Parse(data []byte) (*File, error) {
	f := DefaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return f, nil
}

func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build assembles the script described by f and returns it with the
// coarse-graining map, nil when f has none.
func (f *File) Build() (*rdsys.Script, []int, error) {
	envs := f.Environments
	if len(envs) == 0 {
		envs = []string{""}
	}

	reactions := make([]network.Reaction, 0, len(f.Reactions))
	for i, rc := range f.Reactions {
		r, err := network.NewReaction(rc.Equation, rc.Kf, rc.Kr)
		if err != nil {
			return nil, nil, fmt.Errorf("reaction %d: %w", i, err)
		}
		r.Label = rc.Label
		r.Environments = rc.Environments
		reactions = append(reactions, r)
	}
	net, err := network.New(f.Species, reactions, envs)
	if err != nil {
		return nil, nil, err
	}

	topo, err := f.Space.build()
	if err != nil {
		return nil, nil, err
	}
	sys, err := rdsys.NewSystem(net, topo, f.Units)
	if err != nil {
		return nil, nil, err
	}
	if err := f.applyInitial(sys); err != nil {
		return nil, nil, err
	}

	s, err := f.Script.build(sys)
	if err != nil {
		return nil, nil, err
	}

	var indexMap []int
	if len(f.IndexMap) > 0 {
		indexMap = append([]int(nil), f.IndexMap...)
	}
	return s, indexMap, nil
}

func (c SpaceConfig) build() (space.Topology, error) {
	switch {
	case c.Grid != nil && c.Graph == nil:
		return c.Grid.build()
	case c.Graph != nil && c.Grid == nil:
		return space.NewGraph(c.Graph.Nodes, c.Graph.Edges)
	default:
		return nil, ErrSpace
	}
}

func (c *GridConfig) build() (*space.Grid, error) {
	if len(c.Shape) == 0 || len(c.Shape) > 3 {
		return nil, fmt.Errorf("%w: grid shape needs 1 to 3 entries", ErrInvalidFile)
	}
	shape := [3]int{1, 1, 1}
	copy(shape[:], c.Shape)

	bc := space.AllReflecting()
	switch len(c.Boundaries) {
	case 0:
	case 1, 3:
		for axis := range bc {
			name := c.Boundaries[0]
			if len(c.Boundaries) == 3 {
				name = c.Boundaries[axis]
			}
			b, err := space.ParseBoundary(name)
			if err != nil {
				return nil, err
			}
			bc[axis] = b
		}
	default:
		return nil, fmt.Errorf("%w: %d boundary entries", ErrInvalidFile, len(c.Boundaries))
	}
	return space.NewGrid(shape[0], shape[1], shape[2], c.CellVol, c.Env, bc)
}

func (f *File) applyInitial(sys *rdsys.System) error {
	for _, ic := range f.Initial {
		if ic.Quantity < 0 {
			return fmt.Errorf("%w: %s quantity %g", ErrInitial, ic.Species, ic.Quantity)
		}
		cells := ic.Cells
		if len(cells) == 0 {
			cells = make([]int, sys.CellCount())
			for i := range cells {
				cells[i] = i
			}
		}
		for _, c := range cells {
			if err := sys.SetQuantity(ic.Species, c, ic.Quantity); err != nil {
				return fmt.Errorf("%w: %w", ErrInitial, err)
			}
			if ic.Chemostat != nil {
				if err := sys.SetChemostat(ic.Species, c, *ic.Chemostat); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c ScriptConfig) build(sys *rdsys.System) (*rdsys.Script, error) {
	s := rdsys.NewScript(sys, c.TSample)
	if c.TimeStep > 0 {
		s.TimeStep = c.TimeStep
	}
	if c.TMax > 0 {
		s.TMax = c.TMax
	}
	policy, err := rdsys.ParseSamplingPolicy(c.SamplingPolicy)
	if err != nil {
		return nil, err
	}
	s.SamplingPolicy = policy
	if c.SamplingInterval > 0 {
		s.SamplingInterval = c.SamplingInterval
	}
	if c.Seed != 0 {
		s.Seed = c.Seed
	}
	if c.Units != nil {
		s.Units = *c.Units
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
