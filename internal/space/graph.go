package space

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/units"
)

type Node struct {
	Volume float64 `json:"volume" yaml:"volume"`
	Env    int     `json:"env" yaml:"env"`
}

// Edge joins two nodes through a contact surface; Distance is the
// center-to-center distance. Edges are unordered.
type Edge struct {
	I        int     `json:"i" yaml:"i"`
	J        int     `json:"j" yaml:"j"`
	Surface  float64 `json:"surface" yaml:"surface"`
	Distance float64 `json:"distance" yaml:"distance"`
}

type edgeKey [2]int

func keyOf(i, j int) edgeKey {
	if i > j {
		i, j = j, i
	}
	return edgeKey{i, j}
}

// Graph is a set of compartments joined by edges.
type Graph struct {
	nodes []Node
	edges []Edge
	adj   [][]int
	index map[edgeKey]int
}

// NewGraph validates and copies nodes and edges: endpoints must be distinct
// nodes, no pair may be joined twice, and distances must be positive.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: append([]Node(nil), nodes...),
		edges: append([]Edge(nil), edges...),
		adj:   make([][]int, len(nodes)),
		index: make(map[edgeKey]int, len(edges)),
	}
	for i, n := range g.nodes {
		if !(n.Volume > 0) {
			return nil, fmt.Errorf("%w: node %d volume %g", ErrInvalidGeometry, i, n.Volume)
		}
		if n.Env < 0 {
			return nil, fmt.Errorf("%w: node %d has a negative environment index", ErrInvalidGeometry, i)
		}
	}
	for k, e := range g.edges {
		if e.I < 0 || e.I >= len(nodes) || e.J < 0 || e.J >= len(nodes) {
			return nil, fmt.Errorf("%w: edge %d (%d, %d) has an endpoint out of range", ErrInvalidEdge, k, e.I, e.J)
		}
		if e.I == e.J {
			return nil, fmt.Errorf("%w: edge %d is a self loop on %d", ErrInvalidEdge, k, e.I)
		}
		if !(e.Distance > 0) || e.Surface < 0 {
			return nil, fmt.Errorf("%w: edge %d (%d, %d) surface %g distance %g", ErrInvalidEdge, k, e.I, e.J, e.Surface, e.Distance)
		}
		key := keyOf(e.I, e.J)
		if _, ok := g.index[key]; ok {
			return nil, fmt.Errorf("%w: (%d, %d)", ErrDuplicateEdge, e.I, e.J)
		}
		g.index[key] = k
		g.adj[e.I] = append(g.adj[e.I], e.J)
		g.adj[e.J] = append(g.adj[e.J], e.I)
	}
	return g, nil
}

func (g *Graph) Kind() Kind                { return KindGraph }
func (g *Graph) Size() int                 { return len(g.nodes) }
func (g *Graph) NEdges() int               { return len(g.edges) }
func (g *Graph) CellVolume(i int) float64  { return g.nodes[i].Volume }
func (g *Graph) CellEnvironment(i int) int { return g.nodes[i].Env }
func (g *Graph) Node(i int) Node           { return g.nodes[i] }
func (g *Graph) Nodes() []Node             { return append([]Node(nil), g.nodes...) }
func (g *Graph) Edges() []Edge             { return append([]Edge(nil), g.edges...) }

func (g *Graph) Neighbors(i int) []int {
	return append([]int(nil), g.adj[i]...)
}

// Edge returns the edge joining i and j in either direction.
func (g *Graph) Edge(i, j int) (Edge, bool) {
	k, ok := g.index[keyOf(i, j)]
	if !ok {
		return Edge{}, false
	}
	return g.edges[k], true
}

func (g *Graph) AreNeighbors(i, j int) bool {
	_, ok := g.index[keyOf(i, j)]
	return ok
}

func (g *Graph) Clone() Topology {
	c, _ := NewGraph(g.nodes, g.edges)
	return c
}

func (g *Graph) In(from, to units.System) Topology {
	nodes := g.Nodes()
	for i := range nodes {
		nodes[i].Volume = units.Convert(nodes[i].Volume, units.Volume, from, to)
	}
	edges := g.Edges()
	for i := range edges {
		edges[i].Surface = units.Convert(edges[i].Surface, units.Surface, from, to)
		edges[i].Distance = units.Convert(edges[i].Distance, units.Length, from, to)
	}
	c, _ := NewGraph(nodes, edges)
	return c
}

// GridToGraph returns a graph with one node per grid cell and one edge per
// pair of face neighbours. Edge distance is the cell side and surface its
// square. Periodic axes add wraparound edges when the extent exceeds two.
func GridToGraph(grid *Grid) (*Graph, error) {
	if err := grid.bc.validate(); err != nil {
		return nil, err
	}
	n := grid.Size()
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{Volume: grid.cellVol, Env: grid.env[i]}
	}

	dist := grid.EdgeLength()
	surf := dist * dist
	var edges []Edge
	seen := make(map[edgeKey]bool)
	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			j, ok := grid.step(i, axis, 1)
			if !ok || seen[keyOf(i, j)] {
				continue
			}
			seen[keyOf(i, j)] = true
			edges = append(edges, Edge{I: i, J: j, Surface: surf, Distance: dist})
		}
	}
	return NewGraph(nodes, edges)
}
