package grid

import (
	"errors"
	"fmt"
)

const (
	Wall     = 0
	Walkable = 1
)

var (
	ErrInvalidGrid = errors.New("invalid grid")
	ErrOutOfBounds = errors.New("coordinates out of bounds")
)

// Cell is an index into a flattened size×size grid.
type Cell int

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Grid struct {
	size     int
	cells    []bool
	walkable []Cell
}

func New(size int, flat []int) (Grid, error) {
	if size <= 0 {
		return Grid{}, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidGrid, size)
	}
	if len(flat) != size*size {
		return Grid{}, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidGrid, size*size, len(flat))
	}
	g := Grid{
		size:  size,
		cells: make([]bool, len(flat)),
	}
	for i, v := range flat {
		switch v {
		case Wall:
		case Walkable:
			g.cells[i] = true
			g.walkable = append(g.walkable, Cell(i))
		default:
			return Grid{}, fmt.Errorf("%w: cell %d has value %d", ErrInvalidGrid, i, v)
		}
	}
	return g, nil
}

// Open builds a size×size grid with every cell walkable.
func Open(size int) (Grid, error) {
	flat := make([]int, size*size)
	for i := range flat {
		flat[i] = Walkable
	}
	return New(size, flat)
}

func (g Grid) Size() int { return g.size }
func (g Grid) Len() int  { return len(g.cells) }

// Walkable returns the walkable cells in ascending order. The slice is shared.
func (g Grid) Walkable() []Cell { return g.walkable }

func (g Grid) Contains(c Cell) bool {
	return c >= 0 && int(c) < len(g.cells)
}

func (g Grid) IsWalkable(c Cell) bool {
	return g.Contains(c) && g.cells[c]
}

func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

func (g Grid) To2D(c Cell) Point {
	return Point{X: int(c) % g.size, Y: int(c) / g.size}
}

func (g Grid) From2D(x, y int) (Cell, error) {
	if !g.InBounds(x, y) {
		return 0, fmt.Errorf("%w: (%d,%d) on %dx%d grid", ErrOutOfBounds, x, y, g.size, g.size)
	}
	return Cell(y*g.size + x), nil
}

func (g Grid) Manhattan(a, b Cell) int {
	pa, pb := g.To2D(a), g.To2D(b)
	return abs(pa.X-pb.X) + abs(pa.Y-pb.Y)
}

// CellsWithinRange returns the walkable cells at Manhattan distance <= radius
// from center. Cells are ordered by distance ring, then row-major inside a ring,
// so the center always comes first.
func (g Grid) CellsWithinRange(center Cell, radius int) []Cell {
	if radius < 0 || !g.Contains(center) {
		return nil
	}
	p := g.To2D(center)
	out := make([]Cell, 0, 2*radius*(radius+1)+1)
	for d := 0; d <= radius; d++ {
		// dy ascending with dx ascending keeps each ring in row-major order.
		ring := make([]Cell, 0, 4*d+1)
		for dy := -d; dy <= d; dy++ {
			rest := d - abs(dy)
			for _, dx := range ringOffsets(rest) {
				x, y := p.X+dx, p.Y+dy
				if !g.InBounds(x, y) {
					continue
				}
				c := Cell(y*g.size + x)
				if g.cells[c] {
					ring = append(ring, c)
				}
			}
		}
		out = append(out, ring...)
	}
	return out
}

func ringOffsets(rest int) []int {
	if rest == 0 {
		return []int{0}
	}
	return []int{-rest, rest}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
