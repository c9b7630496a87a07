// Package engine drives the tick-synchronous droplet simulation: the
// process, movement, and collision phases of §4.7, seeded from a loaded
// program and running against an injected I/O bridge.
package engine

import (
	"context"
	"fmt"

	"tubular.dev/tubular/internal/tubular/droplet"
	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/grid"
	"tubular.dev/tubular/internal/tubular/ioadapter"
	"tubular.dev/tubular/internal/tubular/loader"
	"tubular.dev/tubular/internal/tubular/ops"
	"tubular.dev/tubular/internal/tubular/stackmem"
	"tubular.dev/tubular/internal/tubular/value"
)

// StopReason explains why Run stopped.
type StopReason int

const (
	// StopNoDroplets means every droplet was destroyed: normal termination.
	StopNoDroplets StopReason = iota
	// StopTickLimit means the configured tick cap was reached: truncation.
	StopTickLimit
	// StopContext means the caller's context was cancelled between ticks.
	StopContext
)

func (r StopReason) String() string {
	switch r {
	case StopNoDroplets:
		return "no droplets remaining"
	case StopTickLimit:
		return "tick limit reached"
	case StopContext:
		return "context cancelled"
	default:
		return "unknown"
	}
}

// TickObserver receives a callback after every completed tick, used by the
// ambient structured-log / run-index / live-observer sinks. It must never
// block for long and must never be relied upon by engine semantics.
type TickObserver func(snapshot TickSnapshot)

// TickSnapshot is the diagnostic, read-only view of a tick handed to any
// registered TickObserver.
type TickSnapshot struct {
	Tick         uint64
	LiveDroplets int
	Collisions   int
	BytesWritten int
}

// Engine owns all shared interpreter state and implements ops.Context so
// the operator table can mutate it directly.
type Engine struct {
	grid  *grid.Grid
	pool  *droplet.Pool
	stack *stackmem.DataStack
	res   *stackmem.Reservoir
	calls *stackmem.CallStack
	io    *countingBridge
	table ops.Table

	tick uint64

	observers []TickObserver
}

// New builds an Engine from a loaded Program and an I/O bridge.
func New(p *loader.Program, io ioadapter.Bridge) *Engine {
	e := &Engine{
		grid:  p.Grid,
		pool:  droplet.NewPool(),
		stack: stackmem.NewDataStack(),
		res:   stackmem.NewReservoir(),
		calls: stackmem.NewCallStack(),
		io:    &countingBridge{inner: io},
		table: ops.NewTable(),
	}
	// The seed droplet exists before any tick runs, so it is not subject
	// to the next-tick spawn delay: it processes and moves starting tick 1.
	seed := e.pool.Spawn(p.Start, geo.Down, value.Zero, false)
	seed.JustSpawned = false
	return e
}

// countingBridge wraps a caller-supplied Bridge so Step can report
// bytes-written-this-tick to observers without the underlying Bridge
// implementation needing to know about tick accounting.
type countingBridge struct {
	inner    ioadapter.Bridge
	thisTick int
}

func (c *countingBridge) ReadChar() (byte, bool)   { return c.inner.ReadChar() }
func (c *countingBridge) ReadLine() (string, bool) { return c.inner.ReadLine() }
func (c *countingBridge) Flush() error             { return c.inner.Flush() }

func (c *countingBridge) WriteByte(b byte) error {
	c.thisTick++
	return c.inner.WriteByte(b)
}

func (c *countingBridge) WriteString(s string) error {
	c.thisTick += len(s)
	return c.inner.WriteString(s)
}

// Observe registers a diagnostic callback invoked once per completed tick.
func (e *Engine) Observe(fn TickObserver) {
	e.observers = append(e.observers, fn)
}

// Grid, Stack, Reservoir, CallStack, and IO satisfy ops.Context.
func (e *Engine) Grid() *grid.Grid              { return e.grid }
func (e *Engine) Stack() *stackmem.DataStack     { return e.stack }
func (e *Engine) Reservoir() *stackmem.Reservoir { return e.res }
func (e *Engine) CallStack() *stackmem.CallStack { return e.calls }
func (e *Engine) IO() ioadapter.Bridge { return e.io }

// Spawn registers a new droplet via the pool; it satisfies ops.Context.
func (e *Engine) Spawn(pos geo.Coordinate, dir geo.Direction, v value.Value, originIsTape bool) *droplet.Droplet {
	return e.pool.Spawn(pos, dir, v, originIsTape)
}

// Tick returns the number of completed ticks.
func (e *Engine) Tick() uint64 { return e.tick }

// LiveCount returns the number of currently live droplets.
func (e *Engine) LiveCount() int { return e.pool.LiveCount() }

// Step runs exactly one tick (process, movement, collision phases) and
// returns the number of collisions resolved this tick.
func (e *Engine) Step() int {
	e.io.thisTick = 0

	live := e.pool.Live()
	for _, d := range live {
		if !d.Live {
			continue
		}
		if d.JustSpawned {
			d.JustSpawned = false
			// The tape reader lands its spawns on its own coordinate;
			// dispatching them normally here would immediately re-read
			// the tape. Skip exactly this one dispatch for those.
			if d.HoldLanding {
				d.HoldLanding = false
				continue
			}
		}
		sym := e.grid.CellAt(d.Position)
		if sym == grid.Empty {
			continue
		}
		handler, ok := e.table[sym]
		if !ok {
			continue
		}
		handler(e, d)
	}

	// Movement phase: droplets spawned during this tick's process phase
	// stay put until next tick (§4.5's next-tick rule); everything else
	// that survived processing proposes a move.
	type moving struct {
		d   *droplet.Droplet
		pos geo.Coordinate
	}
	var proposals []moving
	for _, d := range e.pool.Live() {
		if d.JustSpawned {
			continue
		}
		proposals = append(proposals, moving{d: d, pos: d.NextPosition()})
	}

	// Collision phase: group by proposed position, annihilate groups of
	// size >= 2, relocate survivors.
	groups := make(map[geo.Coordinate][]*droplet.Droplet)
	for _, m := range proposals {
		groups[m.pos] = append(groups[m.pos], m.d)
	}
	collisions := 0
	for pos, group := range groups {
		if len(group) >= 2 {
			collisions++
			for _, d := range group {
				d.Live = false
			}
			continue
		}
		group[0].Position = pos
		if !e.grid.InActiveBounds(pos) {
			group[0].Live = false
		}
	}

	e.pool.Compact()
	e.tick++

	if len(e.observers) > 0 {
		snap := TickSnapshot{
			Tick:         e.tick,
			LiveDroplets: e.pool.LiveCount(),
			Collisions:   collisions,
			BytesWritten: e.io.thisTick,
		}
		for _, fn := range e.observers {
			fn(snap)
		}
	}
	return collisions
}

// RunOptions configures Run.
type RunOptions struct {
	// TickLimit caps the number of ticks; zero means unbounded.
	TickLimit uint64
}

// Run drives Step in a loop until no droplets remain, the tick limit is
// reached, or ctx is cancelled between ticks. It returns the stop reason.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (StopReason, error) {
	for {
		if e.pool.LiveCount() == 0 {
			return StopNoDroplets, nil
		}
		if opts.TickLimit > 0 && e.tick >= opts.TickLimit {
			return StopTickLimit, nil
		}
		select {
		case <-ctx.Done():
			return StopContext, nil
		default:
		}
		e.Step()
	}
}

// RunResult is a convenience summary returned by RunProgram.
type RunResult struct {
	Reason StopReason
	Ticks  uint64
}

// RunProgram constructs an Engine for the already loaded program p against
// io, and runs it to completion or truncation.
func RunProgram(ctx context.Context, p *loader.Program, io ioadapter.Bridge, opts RunOptions) (*RunResult, error) {
	e := New(p, io)
	reason, err := e.Run(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("running program: %w", err)
	}
	return &RunResult{Reason: reason, Ticks: e.Tick()}, nil
}
