package ops

import (
	"testing"

	"tubular.dev/tubular/internal/tubular/droplet"
	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/grid"
	"tubular.dev/tubular/internal/tubular/ioadapter"
	"tubular.dev/tubular/internal/tubular/stackmem"
	"tubular.dev/tubular/internal/tubular/value"
)

// fakeCtx is a minimal Context for exercising individual handlers in
// isolation, without a full engine.
type fakeCtx struct {
	g         *grid.Grid
	stack     *stackmem.DataStack
	reservoir *stackmem.Reservoir
	calls     *stackmem.CallStack
	io        *ioadapter.Scripted
	pool      *droplet.Pool
	spawned   []*droplet.Droplet
}

func newFakeCtx(src string) *fakeCtx {
	g := grid.New()
	for row, line := range splitLines(src) {
		for col := 0; col < len(line); col++ {
			if line[col] != ' ' {
				g.Set(geo.At(col, row), line[col])
			}
		}
	}
	return &fakeCtx{
		g:         g,
		stack:     stackmem.NewDataStack(),
		reservoir: stackmem.NewReservoir(),
		calls:     stackmem.NewCallStack(),
		io:        ioadapter.NewScripted(""),
		pool:      droplet.NewPool(),
	}
}

func splitLines(s string) []string {
	var lines []string
	cur := ""
	for _, c := range s {
		if c == '\n' {
			lines = append(lines, cur)
			cur = ""
			continue
		}
		cur += string(c)
	}
	lines = append(lines, cur)
	return lines
}

func (f *fakeCtx) Grid() *grid.Grid                { return f.g }
func (f *fakeCtx) Stack() *stackmem.DataStack       { return f.stack }
func (f *fakeCtx) Reservoir() *stackmem.Reservoir   { return f.reservoir }
func (f *fakeCtx) CallStack() *stackmem.CallStack   { return f.calls }
func (f *fakeCtx) IO() ioadapter.Bridge             { return f.io }
func (f *fakeCtx) Spawn(pos geo.Coordinate, dir geo.Direction, v value.Value, tape bool) *droplet.Droplet {
	d := f.pool.Spawn(pos, dir, v, tape)
	f.spawned = append(f.spawned, d)
	return d
}

func TestVerticalPipeDestroysHorizontalEntry(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("|")
	d := &droplet.Droplet{Direction: geo.Right, Live: true}
	table['|'](ctx, d)
	if d.Live {
		t.Fatal("expected destruction on wrong-axis entry")
	}
}

func TestVerticalPipePassesThroughVerticalEntry(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("|")
	d := &droplet.Droplet{Direction: geo.Down, Live: true}
	table['|'](ctx, d)
	if !d.Live || d.Direction != geo.Down {
		t.Fatalf("expected pass-through, got live=%v dir=%v", d.Live, d.Direction)
	}
}

func TestForwardSlashBranchesOnValue(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("/")

	d := &droplet.Droplet{Direction: geo.Up, Value: value.Zero, Live: true}
	table['/'](ctx, d)
	if d.Direction != geo.Right {
		t.Fatalf("Up+zero = %v, want Right", d.Direction)
	}

	d = &droplet.Droplet{Direction: geo.Up, Value: value.FromInt64(1), Live: true}
	table['/'](ctx, d)
	if d.Direction != geo.Left {
		t.Fatalf("Up+nonzero = %v, want Left", d.Direction)
	}
}

func TestDigitLiteralSetsValueInPlace(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("5")
	d := &droplet.Droplet{
		Position:     geo.At(0, 0),
		Direction:    geo.Left,
		Value:        value.FromInt64(9),
		OriginIsTape: true,
		Live:         true,
	}
	table['5'](ctx, d)
	if !d.Live {
		t.Fatal("digit literal should not destroy the triggering droplet")
	}
	if d.Value.Int64() != 5 || d.Direction != geo.Down || d.OriginIsTape {
		t.Fatalf("unexpected droplet state: %+v", d)
	}
	if len(ctx.spawned) != 0 {
		t.Fatalf("expected no spawn, got %d", len(ctx.spawned))
	}
}

func TestTapeReaderSpawnsForEachCharacter(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx(">AB")
	d := &droplet.Droplet{Position: geo.At(0, 0), Direction: geo.Down, Live: true}
	table['>'](ctx, d)
	if d.Live {
		t.Fatal("tape reader should consume triggering droplet")
	}
	if len(ctx.spawned) != 2 {
		t.Fatalf("expected 2 spawns, got %d", len(ctx.spawned))
	}
	if ctx.spawned[0].Value.Int64() != 'A' || ctx.spawned[1].Value.Int64() != 'B' {
		t.Fatalf("unexpected spawn values: %v %v", ctx.spawned[0].Value, ctx.spawned[1].Value)
	}
	for _, sp := range ctx.spawned {
		if !sp.OriginIsTape || sp.Position != geo.At(0, 0) || sp.Direction != geo.Down {
			t.Fatalf("unexpected spawn: %+v", sp)
		}
		if !sp.HoldLanding {
			t.Fatal("tape-read spawn must hold its landing dispatch to avoid re-reading the tape")
		}
	}
}

func TestGreaterThanAsComparatorWhenNotEnteredFromAbove(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx(">")
	ctx.stack.Push(value.FromInt64(5)) // b
	ctx.stack.Push(value.FromInt64(3)) // a
	d := &droplet.Droplet{Direction: geo.Right, Live: true}
	table['>'](ctx, d)
	if d.Live {
		t.Fatal("comparator should consume triggering droplet")
	}
	if got := ctx.stack.Pop().Int64(); got != 1 {
		t.Fatalf("5>3 = %d, want 1", got)
	}
}

func TestBinaryOpOrder(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("S")
	ctx.stack.Push(value.FromInt64(7)) // b, pushed first
	ctx.stack.Push(value.FromInt64(2)) // a, pushed second
	d := &droplet.Droplet{Live: true}
	table['S'](ctx, d)
	if got := ctx.stack.Pop().Int64(); got != 5 {
		t.Fatalf("S(b=7,a=2) = %d, want 5", got)
	}
}

func TestDivAndModByZero(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("D")
	ctx.stack.Push(value.FromInt64(7))
	ctx.stack.Push(value.Zero)
	d := &droplet.Droplet{Live: true}
	table['D'](ctx, d)
	if got := ctx.stack.Pop(); !got.IsZero() {
		t.Fatalf("D(7,0) = %v, want 0", got)
	}

	ctx.stack.Push(value.FromInt64(7))
	ctx.stack.Push(value.Zero)
	d = &droplet.Droplet{Live: true}
	table['%'](ctx, d)
	if got := ctx.stack.Pop(); !got.IsZero() {
		t.Fatalf("%%(7,0) = %v, want 0", got)
	}
}

func TestReservoirRoundTripViaOps(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("PG")
	ctx.stack.Push(value.FromInt64(42)) // v
	ctx.stack.Push(value.FromInt64(5))  // x
	ctx.stack.Push(value.FromInt64(5))  // y
	d := &droplet.Droplet{Live: true}
	table['P'](ctx, d)

	ctx.stack.Push(value.FromInt64(5)) // x
	ctx.stack.Push(value.FromInt64(5)) // y
	d2 := &droplet.Droplet{Live: true}
	table['G'](ctx, d2)
	if got := ctx.stack.Pop().Int64(); got != 42 {
		t.Fatalf("G after P = %d, want 42", got)
	}
}

func TestCallPushesFrameAndSpawnsAtTarget(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("C")
	ctx.stack.Push(value.FromInt64(3)) // x
	ctx.stack.Push(value.FromInt64(4)) // y
	d := &droplet.Droplet{Position: geo.At(1, 1), Direction: geo.Right, Live: true}
	table['C'](ctx, d)
	if d.Live {
		t.Fatal("Call should destroy triggering droplet")
	}
	if ctx.calls.Depth() != 1 {
		t.Fatalf("call stack depth = %d, want 1", ctx.calls.Depth())
	}
	if len(ctx.spawned) != 1 || ctx.spawned[0].Position != geo.At(3, 4) || ctx.spawned[0].Direction != geo.Down {
		t.Fatalf("unexpected spawn: %+v", ctx.spawned)
	}
}

func TestReturnOnEmptyCallStackDestroysWithoutSpawn(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("R")
	d := &droplet.Droplet{Live: true}
	table['R'](ctx, d)
	if d.Live {
		t.Fatal("Return should destroy triggering droplet")
	}
	if len(ctx.spawned) != 0 {
		t.Fatalf("expected no spawn on empty call stack, got %d", len(ctx.spawned))
	}
}

func TestReturnRestoresSavedFrame(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("R")
	ctx.calls.Push(stackmem.NewCallFrame(geo.At(2, 2), geo.Left))
	d := &droplet.Droplet{Live: true}
	table['R'](ctx, d)
	if len(ctx.spawned) != 1 || ctx.spawned[0].Position != geo.At(2, 2) || ctx.spawned[0].Direction != geo.Left {
		t.Fatalf("unexpected spawn: %+v", ctx.spawned)
	}
}

func TestQuestionMarkSingleCellCharacterInput(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("?")
	ctx.io = ioadapter.NewScripted("A")
	d := &droplet.Droplet{Position: geo.At(0, 0), Direction: geo.Down, Live: true}
	table['?'](ctx, d)
	if d.Value.Int64() != 'A' {
		t.Fatalf("value = %v, want 'A'", d.Value)
	}
	if d.Position != geo.At(0, 0) {
		t.Fatal("single-cell input should not relocate the droplet")
	}
}

func TestQuestionMarkTwoCellNumericInput(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("??")
	ctx.io = ioadapter.NewScripted("123\n")
	d := &droplet.Droplet{Position: geo.At(0, 0), Direction: geo.Right, Live: true}
	table['?'](ctx, d)
	if d.Value.Int64() != 123 {
		t.Fatalf("value = %v, want 123", d.Value)
	}
	if d.Position != geo.At(1, 0) {
		t.Fatalf("expected relocation onto second '?' cell, got %v", d.Position)
	}
}

func TestQuestionMarkEOFYieldsMinusOne(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("?")
	ctx.io = ioadapter.NewScripted("")
	d := &droplet.Droplet{Position: geo.At(0, 0), Direction: geo.Down, Live: true}
	table['?'](ctx, d)
	if d.Value.Int64() != -1 {
		t.Fatalf("value = %v, want -1", d.Value)
	}
}

func TestOutputSinkFormatsByOrigin(t *testing.T) {
	table := NewTable()
	ctx := newFakeCtx("!")

	d := &droplet.Droplet{Value: value.FromInt64(65), OriginIsTape: true, Live: true}
	table['!'](ctx, d)
	if string(ctx.io.Output) != "A" {
		t.Fatalf("tape-origin output = %q, want %q", ctx.io.Output, "A")
	}

	ctx2 := newFakeCtx("!")
	d2 := &droplet.Droplet{Value: value.FromInt64(42), OriginIsTape: false, Live: true}
	table['!'](ctx2, d2)
	if string(ctx2.io.Output) != "42\n" {
		t.Fatalf("numeric output = %q, want %q", ctx2.io.Output, "42\n")
	}
}
