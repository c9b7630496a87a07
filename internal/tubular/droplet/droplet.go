// Package droplet implements Tubular's active execution tokens and the
// pool that tracks them across ticks.
package droplet

import (
	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/value"
)

// ID is a stable, monotonically increasing droplet identifier.
type ID uint64

// Droplet is an active particle carrying a value across the grid.
type Droplet struct {
	ID           ID
	Value        value.Value
	Position     geo.Coordinate
	Direction    geo.Direction
	OriginIsTape bool
	Live         bool

	// JustSpawned marks a droplet created during the current tick's
	// process phase. It excludes the droplet from movement during that
	// same tick, per §4.5's next-tick rule.
	JustSpawned bool

	// HoldLanding marks a droplet that must skip its first process-phase
	// dispatch once JustSpawned clears. Only the tape reader sets this: its
	// spawned droplets land on the reader's own coordinate, and a plain
	// maturing dispatch there would re-trigger a fresh tape read forever.
	// Call and Return spawn onto a different coordinate than their
	// triggering symbol, so their droplets mature straight into a normal
	// first dispatch and never need this.
	HoldLanding bool
}

// NextPosition returns where d would land if it moved one step in its
// current direction.
func (d *Droplet) NextPosition() geo.Coordinate {
	return d.Position.Step(d.Direction)
}

// Pool holds droplets with stable IDs and exposes insertion-order iteration
// over the live set. Droplets spawned during a tick's process phase are
// appended to the pool but are tagged so the scheduler can exclude them
// from that same tick's movement phase (§4.5's next-tick rule).
type Pool struct {
	droplets []*Droplet
	nextID   ID
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Spawn creates and registers a new live droplet, returning it. The
// returned droplet is marked JustSpawned; callers seeding a droplet outside
// of a tick's process phase (e.g. the initial droplet at program start)
// should clear that flag themselves.
func (p *Pool) Spawn(pos geo.Coordinate, dir geo.Direction, v value.Value, originIsTape bool) *Droplet {
	d := &Droplet{
		ID:           p.nextID,
		Value:        v,
		Position:     pos,
		Direction:    dir,
		OriginIsTape: originIsTape,
		Live:         true,
		JustSpawned:  true,
	}
	p.nextID++
	p.droplets = append(p.droplets, d)
	return d
}

// Live returns all droplets currently marked live, in ascending-ID
// (insertion) order, per the ordering guarantee in §5.
func (p *Pool) Live() []*Droplet {
	out := make([]*Droplet, 0, len(p.droplets))
	for _, d := range p.droplets {
		if d.Live {
			out = append(out, d)
		}
	}
	return out
}

// LiveCount returns the number of currently live droplets.
func (p *Pool) LiveCount() int {
	n := 0
	for _, d := range p.droplets {
		if d.Live {
			n++
		}
	}
	return n
}

// Compact drops tombstoned (non-live) droplets from the backing slice. It
// is safe to call between ticks; it never changes observable semantics,
// only the pool's memory footprint.
func (p *Pool) Compact() {
	kept := p.droplets[:0]
	for _, d := range p.droplets {
		if d.Live {
			kept = append(kept, d)
		}
	}
	p.droplets = kept
}
