// Package coarsegrain aggregates the cells of a grid into the nodes of a
// coarser graph and spreads coarse results back over the fine cells.
//
// An index map assigns every fine cell the index of its coarse node, or -1
// to drop the cell from the coarse model.
package coarsegrain

import (
	"fmt"
	"slices"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidIndexMap = fmt.Errorf("%w: invalid index map", dynamo.ErrValidation)

var (
	ErrIndexMapSize        = fmt.Errorf("%w: length does not match the number of cells", ErrInvalidIndexMap)
	ErrIndexMapValue       = fmt.Errorf("%w: value below -1", ErrInvalidIndexMap)
	ErrIndexMapEmpty       = fmt.Errorf("%w: no cell is kept", ErrInvalidIndexMap)
	ErrIndexMapGap         = fmt.Errorf("%w: unused output index", ErrInvalidIndexMap)
	ErrIndexMapEnvironment = fmt.Errorf("%w: output node mixes environments", ErrInvalidIndexMap)

	ErrBoundary            = fmt.Errorf("%w: coarse-graining needs reflecting boundaries", dynamo.ErrValidation)
	ErrUnsupportedTopology = fmt.Errorf("%w: coarse-graining needs a grid", dynamo.ErrValidation)
)

// ValidateIndexMap checks m against t: one entry per cell, values in
// {-1} ∪ [0, max], every output index used, and one environment per output
// node.
func ValidateIndexMap(m []int, t space.Topology) error {
	if len(m) != t.Size() {
		return fmt.Errorf("%w: %d entries for %d cells", ErrIndexMapSize, len(m), t.Size())
	}
	for i, v := range m {
		if v < -1 {
			return fmt.Errorf("%w: %d at cell %d", ErrIndexMapValue, v, i)
		}
	}
	n := outputCount(m)
	if n == 0 {
		return ErrIndexMapEmpty
	}

	env := make([]int, n)
	for i := range env {
		env[i] = -1
	}
	for i, v := range m {
		if v < 0 {
			continue
		}
		e := t.CellEnvironment(i)
		if env[v] == -1 {
			env[v] = e
		} else if env[v] != e {
			return fmt.Errorf("%w: node %d gets environments %d and %d", ErrIndexMapEnvironment, v, env[v], e)
		}
	}
	for v, e := range env {
		if e == -1 {
			return fmt.Errorf("%w: %d", ErrIndexMapGap, v)
		}
	}
	return nil
}

func outputCount(m []int) int {
	if len(m) == 0 {
		return 0
	}
	return slices.Max(m) + 1
}

func groupSizes(m []int) []int {
	sizes := make([]int, outputCount(m))
	for _, v := range m {
		if v >= 0 {
			sizes[v]++
		}
	}
	return sizes
}

// CoarsegrainTopology aggregates a reflecting grid. Each output node gets
// the summed volume and the shared environment of its cells and sits at
// their centroid. Output edges merge the fine edges between two distinct
// kept nodes, summing their surfaces; their distance is the distance between
// centroids.
func CoarsegrainTopology(t space.Topology, m []int) (*space.Graph, error) {
	var grid *space.Grid
	switch g := t.(type) {
	case *space.Grid:
		grid = g
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedTopology, t.Kind())
	}
	for axis, bc := range grid.Boundaries() {
		if bc != space.Reflecting {
			return nil, fmt.Errorf("%w: axis %d is %s", ErrBoundary, axis, bc)
		}
	}
	fine, err := space.GridToGraph(grid)
	if err != nil {
		return nil, err
	}
	if err := ValidateIndexMap(m, grid); err != nil {
		return nil, err
	}

	n := outputCount(m)
	nodes := make([]space.Node, n)
	centroids := make([][3]float64, n)
	sizes := groupSizes(m)
	side := grid.EdgeLength()
	for i, v := range m {
		if v < 0 {
			continue
		}
		nodes[v].Volume += grid.CellVolume(i)
		nodes[v].Env = grid.CellEnvironment(i)
		x, y, z, _ := grid.Coords(i)
		centroids[v][0] += float64(x) * side
		centroids[v][1] += float64(y) * side
		centroids[v][2] += float64(z) * side
	}
	for v := range centroids {
		for axis := range centroids[v] {
			centroids[v][axis] /= float64(sizes[v])
		}
	}

	type pair [2]int
	var order []pair
	surface := make(map[pair]float64)
	for _, e := range fine.Edges() {
		a, b := m[e.I], m[e.J]
		if a < 0 || b < 0 || a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		p := pair{a, b}
		if _, ok := surface[p]; !ok {
			order = append(order, p)
		}
		surface[p] += e.Surface
	}

	edges := make([]space.Edge, len(order))
	for k, p := range order {
		edges[k] = space.Edge{
			I:        p[0],
			J:        p[1],
			Surface:  surface[p],
			Distance: floats.Distance(centroids[p[0]][:], centroids[p[1]][:], 2),
		}
	}
	return space.NewGraph(nodes, edges)
}

// CoarsegrainSystem returns a new system on the coarse graph of sys.Space.
// Quantities of the cells of a node are summed and a node is chemostated for
// a species when any of its cells is. Cells mapped to -1 are dropped.
func CoarsegrainSystem(sys *rdsys.System, m []int) (*rdsys.System, error) {
	graph, err := CoarsegrainTopology(sys.Space, m)
	if err != nil {
		return nil, err
	}
	fineN, coarseN := sys.CellCount(), graph.Size()
	out := &rdsys.System{
		Network:    sys.Network,
		Space:      graph,
		State:      make([]float64, sys.SpeciesCount()*coarseN),
		Chemostats: make([]bool, sys.SpeciesCount()*coarseN),
		Units:      sys.Units,
	}
	for s := 0; s < sys.SpeciesCount(); s++ {
		for c, v := range m {
			if v < 0 {
				continue
			}
			out.State[s*coarseN+v] += sys.State[s*fineN+c]
			out.Chemostats[s*coarseN+v] = out.Chemostats[s*coarseN+v] || sys.Chemostats[s*fineN+c]
		}
	}
	return out, nil
}

// UncoarsegrainTrajectory spreads a coarse trajectory over the cells of fine:
// each cell gets its node's value divided by the number of cells of that
// node, and cells mapped to -1 get zero. Per-node totals are preserved, the
// distribution inside a node is not.
func UncoarsegrainTrajectory(tr *rdsys.Trajectory, fine *rdsys.System, m []int) (*rdsys.Trajectory, error) {
	if err := ValidateIndexMap(m, fine.Space); err != nil {
		return nil, err
	}
	sizes := groupSizes(m)
	coarseN := tr.System.CellCount()
	if coarseN != len(sizes) {
		return nil, fmt.Errorf("%w: map defines %d nodes, trajectory has %d", ErrIndexMapSize, len(sizes), coarseN)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}

	u := tr.Units
	if u == (units.System{}) {
		u = tr.System.Units
	}
	fineSys := fine.In(u)
	nSpecies, fineN := fineSys.SpeciesCount(), fineSys.CellCount()
	coarseSize, fineSize := nSpecies*coarseN, nSpecies*fineN

	data := make([]float64, tr.NSamples()*fineSize)
	for k := 0; k < tr.NSamples(); k++ {
		src := tr.Data[k*coarseSize : (k+1)*coarseSize]
		dst := data[k*fineSize : (k+1)*fineSize]
		for s := 0; s < nSpecies; s++ {
			for c, v := range m {
				if v < 0 {
					continue
				}
				dst[s*fineN+c] = src[s*coarseN+v] / float64(sizes[v])
			}
		}
	}

	return &rdsys.Trajectory{
		T:          append([]float64(nil), tr.T...),
		Data:       data,
		System:     fineSys,
		Script:     tr.Script,
		Engine:     tr.Engine,
		Option:     tr.Option,
		IndexMap:   append([]int(nil), m...),
		Incomplete: tr.Incomplete,
		Units:      u,
	}, nil
}
