package space

import (
	"fmt"
	"math"

	"github.com/san-kum/rdsim/internal/units"
)

type Boundary string

const (
	Reflecting Boundary = "reflecting"
	Periodic   Boundary = "periodic"
)

// ParseBoundary accepts "reflecting", "periodic" and its alias "periodical".
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "reflecting", "":
		return Reflecting, nil
	case "periodic", "periodical":
		return Periodic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBoundaryCondition, s)
	}
}

// Boundaries holds the boundary condition of the x, y and z axes.
type Boundaries [3]Boundary

func AllReflecting() Boundaries {
	return Boundaries{Reflecting, Reflecting, Reflecting}
}

func (b Boundaries) validate() error {
	for axis, c := range b {
		if c != Reflecting && c != Periodic {
			return fmt.Errorf("%w: axis %d: %q", ErrBoundaryCondition, axis, c)
		}
	}
	return nil
}

// Grid is a w×h×d box of cells of identical volume. Cell (x, y, z) has index
// x + y·w + z·w·h.
type Grid struct {
	w, h, d int
	cellVol float64
	env     []int
	bc      Boundaries
}

// NewGrid builds a grid. env is broadcast when it holds a single entry or is
// empty, otherwise it must have one entry per cell.
func NewGrid(w, h, d int, cellVol float64, env []int, bc Boundaries) (*Grid, error) {
	if w < 1 || h < 1 || d < 1 {
		return nil, fmt.Errorf("%w: grid shape %dx%dx%d", ErrInvalidGeometry, w, h, d)
	}
	if !(cellVol > 0) {
		return nil, fmt.Errorf("%w: cell volume %g", ErrInvalidGeometry, cellVol)
	}
	if err := bc.validate(); err != nil {
		return nil, err
	}

	n := w * h * d
	cells := make([]int, n)
	switch len(env) {
	case 0:
	case 1:
		for i := range cells {
			cells[i] = env[0]
		}
	case n:
		copy(cells, env)
	default:
		return nil, fmt.Errorf("%w: %d environment entries for %d cells", ErrInvalidGeometry, len(env), n)
	}
	for i, e := range cells {
		if e < 0 {
			return nil, fmt.Errorf("%w: negative environment index at cell %d", ErrInvalidGeometry, i)
		}
	}

	return &Grid{w: w, h: h, d: d, cellVol: cellVol, env: cells, bc: bc}, nil
}

func (g *Grid) Kind() Kind                { return KindGrid }
func (g *Grid) Size() int                 { return g.w * g.h * g.d }
func (g *Grid) Shape() (w, h, d int)      { return g.w, g.h, g.d }
func (g *Grid) CellVol() float64          { return g.cellVol }
func (g *Grid) Boundaries() Boundaries    { return g.bc }
func (g *Grid) CellVolume(i int) float64  { return g.cellVol }
func (g *Grid) CellEnvironment(i int) int { return g.env[i] }

// EdgeLength is the side of a cell, cellVol^(1/3).
func (g *Grid) EdgeLength() float64 {
	return math.Cbrt(g.cellVol)
}

func (g *Grid) Index(x, y, z int) (int, error) {
	if x < 0 || x >= g.w || y < 0 || y >= g.h || z < 0 || z >= g.d {
		return -1, fmt.Errorf("%w: position (%d, %d, %d) outside %dx%dx%d", ErrIndexOutOfRange, x, y, z, g.w, g.h, g.d)
	}
	return x + y*g.w + z*g.w*g.h, nil
}

func (g *Grid) Coords(i int) (x, y, z int, err error) {
	if err := CheckIndex(g, i); err != nil {
		return 0, 0, 0, err
	}
	x, y, z = g.coords(i)
	return x, y, z, nil
}

func (g *Grid) coords(i int) (x, y, z int) {
	return i % g.w, (i / g.w) % g.h, i / (g.w * g.h)
}

func (g *Grid) extent(axis int) int {
	return [3]int{g.w, g.h, g.d}[axis]
}

// step moves one cell along axis. The second result is false when the move
// leaves a reflecting box or wraps back onto the starting cell.
func (g *Grid) step(i, axis, dir int) (int, bool) {
	c := [3]int{}
	c[0], c[1], c[2] = g.coords(i)
	n := g.extent(axis)
	c[axis] += dir
	if c[axis] < 0 || c[axis] >= n {
		if g.bc[axis] != Periodic || n < 2 {
			return 0, false
		}
		c[axis] = (c[axis] + n) % n
	}
	j := c[0] + c[1]*g.w + c[2]*g.w*g.h
	return j, j != i
}

// Neighbors returns the distinct face neighbours of cell i.
func (g *Grid) Neighbors(i int) []int {
	out := make([]int, 0, 6)
	for axis := 0; axis < 3; axis++ {
		for _, dir := range []int{-1, 1} {
			j, ok := g.step(i, axis, dir)
			if !ok {
				continue
			}
			dup := false
			for _, k := range out {
				if k == j {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, j)
			}
		}
	}
	return out
}

func (g *Grid) AreNeighbors(i, j int) bool {
	if CheckIndex(g, i, j) != nil || i == j {
		return false
	}
	a, b := [3]int{}, [3]int{}
	a[0], a[1], a[2] = g.coords(i)
	b[0], b[1], b[2] = g.coords(j)
	sum := 0
	for axis := 0; axis < 3; axis++ {
		dist := a[axis] - b[axis]
		if dist < 0 {
			dist = -dist
		}
		if n := g.extent(axis); g.bc[axis] == Periodic && n-dist < dist {
			dist = n - dist
		}
		sum += dist
	}
	return sum == 1
}

func (g *Grid) Clone() Topology {
	c := *g
	c.env = append([]int(nil), g.env...)
	return &c
}

func (g *Grid) In(from, to units.System) Topology {
	c := g.Clone().(*Grid)
	c.cellVol = units.Convert(g.cellVol, units.Volume, from, to)
	return c
}
