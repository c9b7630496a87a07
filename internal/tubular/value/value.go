// Package value implements Tubular's arbitrary-precision signed integer.
package value

import "math/big"

// Value is an arbitrary-precision signed integer carried by droplets, held
// on the data stack, and stored in the reservoir.
type Value struct {
	i big.Int
}

// Zero is the default Value, used for underflow reads and uninitialized
// reservoir cells.
var Zero = Value{}

// FromInt64 builds a Value from a native integer.
func FromInt64(n int64) Value {
	var v Value
	v.i.SetInt64(n)
	return v
}

// FromBigInt builds a Value that owns a copy of n.
func FromBigInt(n *big.Int) Value {
	var v Value
	v.i.Set(n)
	return v
}

// FromString parses a signed decimal integer. ok is false on malformed input.
func FromString(s string) (Value, bool) {
	var v Value
	_, ok := v.i.SetString(s, 10)
	return v, ok
}

// Big returns a copy of the underlying big.Int.
func (v Value) Big() *big.Int {
	return new(big.Int).Set(&v.i)
}

func (v Value) String() string {
	return v.i.String()
}

// IsZero reports whether v is exactly zero.
func (v Value) IsZero() bool {
	return v.i.Sign() == 0
}

// Sign returns -1, 0, or 1.
func (v Value) Sign() int {
	return v.i.Sign()
}

// Equal reports component-wise equality.
func (v Value) Equal(o Value) bool {
	return v.i.Cmp(&o.i) == 0
}

// Less reports whether v < o.
func (v Value) Less(o Value) bool {
	return v.i.Cmp(&o.i) < 0
}

// Greater reports whether v > o.
func (v Value) Greater(o Value) bool {
	return v.i.Cmp(&o.i) > 0
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	var r Value
	r.i.Add(&v.i, &o.i)
	return r
}

// Sub returns v - o.
func (v Value) Sub(o Value) Value {
	var r Value
	r.i.Sub(&v.i, &o.i)
	return r
}

// Mul returns v * o.
func (v Value) Mul(o Value) Value {
	var r Value
	r.i.Mul(&v.i, &o.i)
	return r
}

// Inc returns v + 1.
func (v Value) Inc() Value {
	return v.Add(FromInt64(1))
}

// Dec returns v - 1.
func (v Value) Dec() Value {
	return v.Sub(FromInt64(1))
}

// Div returns the truncated-toward-zero quotient v / o, or Zero if o is zero.
func (v Value) Div(o Value) Value {
	if o.IsZero() {
		return Zero
	}
	var r Value
	r.i.Quo(&v.i, &o.i)
	return r
}

// Mod returns the Euclidean-style remainder of v mod o, whose sign matches
// v (the dividend), or Zero if o is zero.
func (v Value) Mod(o Value) Value {
	if o.IsZero() {
		return Zero
	}
	var r Value
	r.i.Rem(&v.i, &o.i)
	return r
}

// Int64 truncates to a native int64; callers that need a small bounded
// result (ASCII codes, direction encodings) should range-check themselves.
func (v Value) Int64() int64 {
	return v.i.Int64()
}

// ASCIIByte masks v to the low 8 bits, matching the language's `value & 0xFF`
// output semantics for character sinks.
func (v Value) ASCIIByte() byte {
	var mask big.Int
	mask.And(&v.i, big.NewInt(0xFF))
	return byte(mask.Int64())
}
