// Package space defines the spatial topologies cells live on: a uniform 3D
// grid and a general weighted graph of compartments.
package space

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/units"
)

var (
	ErrIndexOutOfRange   = fmt.Errorf("%w: cell index out of range", dynamo.ErrValidation)
	ErrInvalidGeometry   = fmt.Errorf("%w: invalid geometry", dynamo.ErrValidation)
	ErrInvalidEdge       = fmt.Errorf("%w: invalid edge", dynamo.ErrValidation)
	ErrDuplicateEdge     = fmt.Errorf("%w: duplicated edge", dynamo.ErrValidation)
	ErrBoundaryCondition = fmt.Errorf("%w: unsupported boundary condition", dynamo.ErrValidation)
)

type Kind int

const (
	KindGrid Kind = iota
	KindGraph
)

func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindGraph:
		return "graph"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Topology is implemented by *Grid and *Graph only. Code that depends on the
// geometry switches on the concrete type.
type Topology interface {
	Kind() Kind
	Size() int
	CellVolume(i int) float64
	CellEnvironment(i int) int
	Neighbors(i int) []int
	AreNeighbors(i, j int) bool
	Clone() Topology
	// In returns a copy with every length, surface and volume converted.
	In(from, to units.System) Topology
}

// CheckIndex returns ErrIndexOutOfRange unless every index is a cell of t.
func CheckIndex(t Topology, indices ...int) error {
	for _, i := range indices {
		if i < 0 || i >= t.Size() {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, t.Size())
		}
	}
	return nil
}

// Volumes returns the volume of every cell.
func Volumes(t Topology) []float64 {
	v := make([]float64, t.Size())
	for i := range v {
		v[i] = t.CellVolume(i)
	}
	return v
}

// Environments returns the environment index of every cell.
func Environments(t Topology) []int {
	e := make([]int, t.Size())
	for i := range e {
		e[i] = t.CellEnvironment(i)
	}
	return e
}
