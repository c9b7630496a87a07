package stackmem

import (
	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/value"
)

// Reservoir is a sparse map from any signed-integer Coordinate to a Value,
// defaulting absent reads to zero.
type Reservoir struct {
	cells map[geo.Coordinate]value.Value
}

// NewReservoir returns an empty reservoir.
func NewReservoir() *Reservoir {
	return &Reservoir{cells: make(map[geo.Coordinate]value.Value)}
}

// Get returns the value stored at c, or Zero if nothing was ever written.
func (r *Reservoir) Get(c geo.Coordinate) value.Value {
	if v, ok := r.cells[c]; ok {
		return v
	}
	return value.Zero
}

// Put stores v at c, including an explicit zero.
func (r *Reservoir) Put(c geo.Coordinate, v value.Value) {
	r.cells[c] = v
}

// Len returns the number of written coordinates, for diagnostics.
func (r *Reservoir) Len() int {
	return len(r.cells)
}
