// Package grid holds the sparse, immutable-after-load cell map that a
// Tubular program executes against.
package grid

import "tubular.dev/tubular/internal/tubular/geo"

// Empty is the distinguished symbol returned for space and out-of-bounds
// lookups.
const Empty = ' '

// Grid is a sparse mapping from grid coordinate to cell symbol. It is
// read-only after Loader builds it.
type Grid struct {
	cells map[geo.Coordinate]byte

	minX, minY int
	maxX, maxY int
	bounded    bool
}

// New returns an empty Grid.
func New() *Grid {
	return &Grid{cells: make(map[geo.Coordinate]byte)}
}

// Set records sym at c, extending the bounding box.
func (g *Grid) Set(c geo.Coordinate, sym byte) {
	g.cells[c] = sym
	if !g.bounded {
		g.minX, g.maxX = c.X, c.X
		g.minY, g.maxY = c.Y, c.Y
		g.bounded = true
		return
	}
	if c.X < g.minX {
		g.minX = c.X
	}
	if c.X > g.maxX {
		g.maxX = c.X
	}
	if c.Y < g.minY {
		g.minY = c.Y
	}
	if c.Y > g.maxY {
		g.maxY = c.Y
	}
}

// CellAt returns the symbol at c, or Empty for space/out-of-bounds cells.
func (g *Grid) CellAt(c geo.Coordinate) byte {
	if sym, ok := g.cells[c]; ok {
		return sym
	}
	return Empty
}

// Has reports whether a non-space cell is recorded at c.
func (g *Grid) Has(c geo.Coordinate) bool {
	_, ok := g.cells[c]
	return ok
}

// Len returns the number of recorded non-space cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Bounds reports the occupied bounding box. ok is false for an empty grid.
func (g *Grid) Bounds() (minX, minY, maxX, maxY int, ok bool) {
	return g.minX, g.minY, g.maxX, g.maxY, g.bounded
}

// InActiveBounds reports whether c lies inside or directly adjacent to the
// occupied bounding box, per the droplet liveness invariant in §3.
func (g *Grid) InActiveBounds(c geo.Coordinate) bool {
	minX, minY, maxX, maxY, ok := g.Bounds()
	if !ok {
		return false
	}
	return c.X >= minX-1 && c.X <= maxX+1 && c.Y >= minY-1 && c.Y <= maxY+1
}

// RightOf returns the symbol immediately to the right of c on the same row
// (y unchanged, x+1), used by the tape reader to scan its literal string.
func (g *Grid) RightOf(c geo.Coordinate) byte {
	return g.CellAt(c.Offset(1, 0))
}
