package stackmem

import "tubular.dev/tubular/internal/tubular/geo"

// CallFrame is a saved return site for the Call/Return subroutine
// operators. The return direction is stored in its Call-boundary numeric
// encoding (§3: 0=Up, 1=Right, 2=Down, 3=Left) rather than as a
// geo.Direction, since that encoding is what crosses the Call/Return
// boundary in the source language.
type CallFrame struct {
	Coord   geo.Coordinate
	DirCode int
}

// NewCallFrame builds a CallFrame from a live direction, encoding it via
// geo.EncodeCall.
func NewCallFrame(coord geo.Coordinate, dir geo.Direction) CallFrame {
	return CallFrame{Coord: coord, DirCode: geo.EncodeCall(dir)}
}

// Dir decodes the frame's stored direction via geo.DecodeCall.
func (f CallFrame) Dir() geo.Direction {
	return geo.DecodeCall(f.DirCode)
}

// CallStack is a LIFO of CallFrames, used solely by the Call and Return
// operators.
type CallStack struct {
	frames []CallFrame
}

// NewCallStack returns an empty call stack.
func NewCallStack() *CallStack {
	return &CallStack{}
}

// Push records a return site.
func (s *CallStack) Push(f CallFrame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame. ok is false on underflow, in which
// case the Return operator destroys its triggering droplet without spawning
// a replacement.
func (s *CallStack) Pop() (frame CallFrame, ok bool) {
	n := len(s.frames)
	if n == 0 {
		return CallFrame{}, false
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f, true
}

// Depth returns the current number of frames.
func (s *CallStack) Depth() int {
	return len(s.frames)
}
