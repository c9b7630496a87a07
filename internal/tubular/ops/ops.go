// Package ops maps cell symbols to their droplet/global-state effects
// (§4.6 of the specification). Handlers receive an explicit Context handle
// rather than touching any package-level state, so the same table can run
// against any engine that implements Context.
package ops

import (
	"tubular.dev/tubular/internal/tubular/droplet"
	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/grid"
	"tubular.dev/tubular/internal/tubular/ioadapter"
	"tubular.dev/tubular/internal/tubular/stackmem"
	"tubular.dev/tubular/internal/tubular/value"
)

// Context is the explicit handle a Handler uses to read and mutate shared
// interpreter state. The tick scheduler implements this interface.
type Context interface {
	Grid() *grid.Grid
	Stack() *stackmem.DataStack
	Reservoir() *stackmem.Reservoir
	CallStack() *stackmem.CallStack
	IO() ioadapter.Bridge
	// Spawn registers a new droplet; per the next-tick rule (§4.5) it will
	// not be proposed for movement during the tick that spawns it.
	Spawn(pos geo.Coordinate, dir geo.Direction, v value.Value, originIsTape bool) *droplet.Droplet
}

// Handler applies a cell symbol's effect to the triggering droplet d,
// given the shared state in ctx. It may mark d non-live, mutate its
// fields, or spawn replacements; movement and collision are resolved by
// the scheduler afterward.
type Handler func(ctx Context, d *droplet.Droplet)

// Table is the symbol → Handler dispatch table, built once by NewTable.
type Table map[byte]Handler

// NewTable builds the full operator dispatch table for the fixed symbol
// alphabet (§6). Unrecognized symbols are rejected at load time, and space
// (the default empty cell) always passes droplets through unchanged, so
// neither needs an entry here.
func NewTable() Table {
	t := Table{}

	// Flow control.
	t['|'] = verticalPipe
	t['-'] = horizontalPipe
	t['^'] = func(_ Context, d *droplet.Droplet) { d.Direction = geo.Up }
	t['#'] = func(_ Context, d *droplet.Droplet) { d.Live = false }
	t['@'] = passThrough
	t['/'] = forwardSlash
	t['\\'] = backSlash

	// Data sources. A literal sets the triggering droplet's value in place
	// and points it downward; it does not destroy or respawn the droplet,
	// so there is no next-tick delay before it continues.
	for digit := byte('0'); digit <= '9'; digit++ {
		digit := digit
		t[digit] = func(_ Context, d *droplet.Droplet) {
			d.Value = value.FromInt64(int64(digit - '0'))
			d.Direction = geo.Down
			d.OriginIsTape = false
		}
	}
	t['>'] = tapeReaderOrGreaterThan
	t['?'] = questionMark

	// Data sinks.
	t['!'] = outputSink
	t[','] = func(ctx Context, d *droplet.Droplet) {
		_ = ctx.IO().WriteByte(d.Value.ASCIIByte())
	}
	t['n'] = func(ctx Context, d *droplet.Droplet) {
		_ = ctx.IO().WriteString(d.Value.String())
	}

	// Unary.
	t['+'] = func(_ Context, d *droplet.Droplet) { d.Value = d.Value.Inc() }
	t['~'] = func(_ Context, d *droplet.Droplet) { d.Value = d.Value.Dec() }

	// Stack operators.
	t[':'] = func(ctx Context, d *droplet.Droplet) { ctx.Stack().Push(d.Value) }
	t[';'] = func(ctx Context, d *droplet.Droplet) { d.Value = ctx.Stack().Pop() }
	t['d'] = func(ctx Context, d *droplet.Droplet) { ctx.Stack().Push(d.Value) }
	t['A'] = binaryOp(func(a, b value.Value) value.Value { return b.Add(a) })
	t['S'] = binaryOp(func(a, b value.Value) value.Value { return b.Sub(a) })
	t['M'] = binaryOp(func(a, b value.Value) value.Value { return b.Mul(a) })
	t['D'] = binaryOp(func(a, b value.Value) value.Value { return b.Div(a) })
	t['%'] = binaryOp(func(a, b value.Value) value.Value { return b.Mod(a) })
	t['='] = binaryOp(func(a, b value.Value) value.Value { return boolValue(b.Equal(a)) })
	t['<'] = binaryOp(func(a, b value.Value) value.Value { return boolValue(b.Less(a)) })

	// Reservoir.
	t['G'] = reservoirGet
	t['P'] = reservoirPut

	// Subroutines.
	t['C'] = callOp
	t['R'] = returnOp

	return t
}

func boolValue(b bool) value.Value {
	if b {
		return value.FromInt64(1)
	}
	return value.Zero
}

func passThrough(_ Context, _ *droplet.Droplet) {}

func verticalPipe(_ Context, d *droplet.Droplet) {
	if d.Direction.IsHorizontal() {
		d.Live = false
	}
}

func horizontalPipe(_ Context, d *droplet.Droplet) {
	if d.Direction.IsVertical() {
		d.Live = false
	}
}

func forwardSlash(_ Context, d *droplet.Droplet) {
	switch d.Direction {
	case geo.Up:
		if d.Value.IsZero() {
			d.Direction = geo.Right
		} else {
			d.Direction = geo.Left
		}
	case geo.Down:
		if d.Value.IsZero() {
			d.Direction = geo.Left
		} else {
			d.Direction = geo.Right
		}
	case geo.Right:
		d.Direction = geo.Up
	case geo.Left:
		d.Direction = geo.Down
	}
}

func backSlash(_ Context, d *droplet.Droplet) {
	switch d.Direction {
	case geo.Down:
		if d.Value.IsZero() {
			d.Direction = geo.Right
		} else {
			d.Direction = geo.Left
		}
	case geo.Up:
		if d.Value.IsZero() {
			d.Direction = geo.Left
		} else {
			d.Direction = geo.Right
		}
	case geo.Right:
		d.Direction = geo.Down
	case geo.Left:
		d.Direction = geo.Up
	}
}

// tapeReaderOrGreaterThan disambiguates '>' per §4.6: a droplet entering
// Down-facing (from above) triggers the tape reader; any other entry
// direction triggers the stack "greater than" comparator.
func tapeReaderOrGreaterThan(ctx Context, d *droplet.Droplet) {
	if d.Direction == geo.Down {
		tapeRead(ctx, d)
		return
	}
	binaryOp(func(a, b value.Value) value.Value { return boolValue(b.Greater(a)) })(ctx, d)
}

func tapeRead(ctx Context, d *droplet.Droplet) {
	d.Live = false
	g := ctx.Grid()
	pos := d.Position
	cursor := pos
	for {
		sym := g.CellAt(cursor.Offset(1, 0))
		if sym == grid.Empty || sym == '|' || sym == '-' {
			break
		}
		sp := ctx.Spawn(pos, geo.Down, value.FromInt64(int64(sym)), true)
		sp.HoldLanding = true
		cursor = cursor.Offset(1, 0)
	}
}

// questionMark resolves the single-cell '?' (character input) versus the
// two-cell '??' (numeric input) token by looking one cell further along
// the droplet's direction of travel.
func questionMark(ctx Context, d *droplet.Droplet) {
	next := d.Position.Step(d.Direction)
	if ctx.Grid().CellAt(next) == '?' {
		numericInput(ctx, d)
		d.Position = next
		return
	}
	characterInput(ctx, d)
}

func characterInput(ctx Context, d *droplet.Droplet) {
	b, ok := ctx.IO().ReadChar()
	if !ok {
		d.Value = value.FromInt64(-1)
		return
	}
	d.Value = value.FromInt64(int64(b))
}

func numericInput(ctx Context, d *droplet.Droplet) {
	line, ok := ctx.IO().ReadLine()
	if !ok {
		d.Value = value.Zero
		return
	}
	v, ok := value.FromString(trimForParse(line))
	if !ok {
		d.Value = value.Zero
		return
	}
	d.Value = v
}

func trimForParse(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func outputSink(ctx Context, d *droplet.Droplet) {
	d.Live = false
	if d.OriginIsTape {
		_ = ctx.IO().WriteByte(d.Value.ASCIIByte())
		return
	}
	_ = ctx.IO().WriteString(d.Value.String())
	_ = ctx.IO().WriteByte('\n')
}

// binaryOp builds a Handler for the data-stack binary operators: pop a,
// pop b (b was pushed first), push combine(a, b), and consume the
// triggering droplet.
func binaryOp(combine func(a, b value.Value) value.Value) Handler {
	return func(ctx Context, d *droplet.Droplet) {
		d.Live = false
		a := ctx.Stack().Pop()
		b := ctx.Stack().Pop()
		ctx.Stack().Push(combine(a, b))
	}
}

func reservoirGet(ctx Context, d *droplet.Droplet) {
	d.Live = false
	y := ctx.Stack().Pop()
	x := ctx.Stack().Pop()
	c := geo.At(int(x.Int64()), int(y.Int64()))
	ctx.Stack().Push(ctx.Reservoir().Get(c))
}

func reservoirPut(ctx Context, d *droplet.Droplet) {
	d.Live = false
	y := ctx.Stack().Pop()
	x := ctx.Stack().Pop()
	v := ctx.Stack().Pop()
	c := geo.At(int(x.Int64()), int(y.Int64()))
	ctx.Reservoir().Put(c, v)
}

func callOp(ctx Context, d *droplet.Droplet) {
	y := ctx.Stack().Pop()
	x := ctx.Stack().Pop()
	ctx.CallStack().Push(stackmem.NewCallFrame(d.Position, d.Direction))
	d.Live = false
	target := geo.At(int(x.Int64()), int(y.Int64()))
	ctx.Spawn(target, geo.Down, value.Zero, false)
}

func returnOp(ctx Context, d *droplet.Droplet) {
	d.Live = false
	frame, ok := ctx.CallStack().Pop()
	if !ok {
		return
	}
	ctx.Spawn(frame.Coord, frame.Dir(), value.Zero, false)
}
