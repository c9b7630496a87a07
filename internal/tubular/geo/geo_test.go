package geo

import "testing"

func TestStep(t *testing.T) {
	c := At(5, 5)
	cases := []struct {
		dir  Direction
		want Coordinate
	}{
		{Down, At(5, 6)},
		{Up, At(5, 4)},
		{Left, At(4, 5)},
		{Right, At(6, 5)},
	}
	for _, tc := range cases {
		if got := c.Step(tc.dir); got != tc.want {
			t.Fatalf("Step(%v) = %v, want %v", tc.dir, got, tc.want)
		}
	}
}

func TestManhattanDistance(t *testing.T) {
	if got := At(0, 0).ManhattanDistance(At(3, -4)); got != 7 {
		t.Fatalf("ManhattanDistance = %d, want 7", got)
	}
}

func TestCallEncodingRoundTrip(t *testing.T) {
	for _, d := range []Direction{Up, Right, Down, Left} {
		if got := DecodeCall(EncodeCall(d)); got != d {
			t.Fatalf("round trip for %v gave %v", d, got)
		}
	}
}

func TestCallEncodingNormalizesModulo4(t *testing.T) {
	if got := DecodeCall(6); got != Down {
		t.Fatalf("DecodeCall(6) = %v, want Down", got)
	}
	if got := DecodeCall(-1); got != Left {
		t.Fatalf("DecodeCall(-1) = %v, want Left", got)
	}
}

func TestHorizontalVertical(t *testing.T) {
	if !Left.IsHorizontal() || Left.IsVertical() {
		t.Fatal("Left should be horizontal, not vertical")
	}
	if !Up.IsVertical() || Up.IsHorizontal() {
		t.Fatal("Up should be vertical, not horizontal")
	}
}
