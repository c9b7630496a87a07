package value

import "testing"

func TestArithmetic(t *testing.T) {
	a := FromInt64(7)
	b := FromInt64(2)

	if got := a.Add(b); got.Int64() != 9 {
		t.Fatalf("Add = %v, want 9", got)
	}
	if got := a.Sub(b); got.Int64() != 5 {
		t.Fatalf("Sub = %v, want 5", got)
	}
	if got := a.Mul(b); got.Int64() != 14 {
		t.Fatalf("Mul = %v, want 14", got)
	}
	if got := a.Div(b); got.Int64() != 3 {
		t.Fatalf("Div = %v, want 3", got)
	}
	if got := a.Mod(b); got.Int64() != 1 {
		t.Fatalf("Mod = %v, want 1", got)
	}
}

func TestDivisionTruncatesTowardZero(t *testing.T) {
	a := FromInt64(-7)
	b := FromInt64(2)
	if got := a.Div(b); got.Int64() != -3 {
		t.Fatalf("Div(-7,2) = %v, want -3", got)
	}
}

func TestModSignMatchesDividend(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{7, 2, 1},
		{-7, 2, -1},
		{7, -2, 1},
		{-7, -2, -1},
	}
	for _, c := range cases {
		got := FromInt64(c.a).Mod(FromInt64(c.b))
		if got.Int64() != c.want {
			t.Fatalf("Mod(%d,%d) = %v, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestDivModByZero(t *testing.T) {
	a := FromInt64(42)
	if got := a.Div(Zero); !got.IsZero() {
		t.Fatalf("Div by zero = %v, want 0", got)
	}
	if got := a.Mod(Zero); !got.IsZero() {
		t.Fatalf("Mod by zero = %v, want 0", got)
	}
}

func TestASCIIByte(t *testing.T) {
	if got := FromInt64(321).ASCIIByte(); got != 65 {
		t.Fatalf("ASCIIByte(321) = %d, want 65", got)
	}
	if got := FromInt64(65).ASCIIByte(); got != 'A' {
		t.Fatalf("ASCIIByte(65) = %d, want 'A'", got)
	}
}

func TestArbitraryPrecision(t *testing.T) {
	big1, ok := FromString("123456789012345678901234567890")
	if !ok {
		t.Fatal("FromString failed to parse large literal")
	}
	one := FromInt64(1)
	sum := big1.Add(one)
	if sum.String() != "123456789012345678901234567891" {
		t.Fatalf("big addition = %s", sum.String())
	}
}
