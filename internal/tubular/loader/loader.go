// Package loader parses a Tubular program's ASCII source into a grid.Grid,
// validating the load-time invariants from the language's data model.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"tubular.dev/tubular/internal/tubular/geo"
	"tubular.dev/tubular/internal/tubular/grid"
)

// StartSymbol seeds the initial droplet.
const StartSymbol = '@'

// recognized is the fixed alphabet of non-space cell symbols (§6).
var recognized = buildAlphabet()

func buildAlphabet() map[byte]struct{} {
	m := make(map[byte]struct{})
	for _, c := range "|-/\\^#@>?!,n+~:;dASMD=<%GPCR" {
		m[byte(c)] = struct{}{}
	}
	for d := byte('0'); d <= '9'; d++ {
		m[d] = struct{}{}
	}
	return m
}

// IsRecognized reports whether sym is part of the fixed cell alphabet.
func IsRecognized(sym byte) bool {
	_, ok := recognized[sym]
	return ok
}

// ErrorKind classifies a load/validation failure.
type ErrorKind int

const (
	ErrNoStartSymbol ErrorKind = iota
	ErrMultipleStartSymbols
	ErrInvalidSymbol
	ErrGridEmpty
	ErrGridTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoStartSymbol:
		return "no start symbol"
	case ErrMultipleStartSymbols:
		return "multiple start symbols"
	case ErrInvalidSymbol:
		return "invalid symbol"
	case ErrGridEmpty:
		return "grid empty"
	case ErrGridTooLarge:
		return "grid too large"
	default:
		return "unknown load error"
	}
}

// LoadError carries the error kind, the offending coordinate when
// applicable, and an optional source snippet for context.
type LoadError struct {
	Kind     ErrorKind
	Coord    geo.Coordinate
	HasCoord bool
	Symbol   byte
	Snippet  string
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case ErrInvalidSymbol:
		return fmt.Sprintf("%s: %q at %s", e.Kind, e.Symbol, e.Coord)
	case ErrGridTooLarge:
		return fmt.Sprintf("%s: %s", e.Kind, e.Snippet)
	case ErrMultipleStartSymbols:
		if e.HasCoord {
			return fmt.Sprintf("%s: second occurrence at %s", e.Kind, e.Coord)
		}
		return e.Kind.String()
	default:
		return e.Kind.String()
	}
}

// Limits bounds the accepted program size, per the resource model in §5.
type Limits struct {
	MaxWidth  int
	MaxHeight int
}

// DefaultLimits satisfies the ≥1000×1000 resource-model floor.
var DefaultLimits = Limits{MaxWidth: 1000, MaxHeight: 1000}

// Program is a loaded, validated grid plus its unique start coordinate.
type Program struct {
	Grid  *grid.Grid
	Start geo.Coordinate
}

// Load parses r as ASCII lines (LF or CRLF), builds the grid, and validates
// the load-time invariants from §4.1 using DefaultLimits.
func Load(r io.Reader) (*Program, error) {
	return LoadWithLimits(r, DefaultLimits)
}

// LoadWithLimits is Load with caller-supplied size limits.
func LoadWithLimits(r io.Reader, limits Limits) (*Program, error) {
	g := grid.New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var startCoord geo.Coordinate
	foundStart := false
	sawAnyLine := false

	row := 0
	for scanner.Scan() {
		sawAnyLine = true
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) > limits.MaxWidth {
			return nil, &LoadError{Kind: ErrGridTooLarge, Snippet: fmt.Sprintf("row %d width %d exceeds limit %d", row, len(line), limits.MaxWidth)}
		}
		for col, ch := range line {
			if ch == ' ' {
				continue
			}
			c := geo.At(col, row)
			if !IsRecognized(ch) {
				return nil, &LoadError{Kind: ErrInvalidSymbol, Symbol: ch, Coord: c, HasCoord: true}
			}
			if ch == StartSymbol {
				if foundStart {
					return nil, &LoadError{Kind: ErrMultipleStartSymbols, Coord: c, HasCoord: true}
				}
				foundStart = true
				startCoord = c
			}
			g.Set(c, ch)
		}
		row++
		if row > limits.MaxHeight {
			return nil, &LoadError{Kind: ErrGridTooLarge, Snippet: fmt.Sprintf("height %d exceeds limit %d", row, limits.MaxHeight)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	if !sawAnyLine || g.Len() == 0 {
		return nil, &LoadError{Kind: ErrGridEmpty}
	}
	if !foundStart {
		return nil, &LoadError{Kind: ErrNoStartSymbol}
	}

	return &Program{Grid: g, Start: startCoord}, nil
}

// Validate re-checks a parsed program's invariants without constructing a
// new grid; useful for validating a program that was loaded elsewhere.
func Validate(p *Program) error {
	if p == nil || p.Grid == nil || p.Grid.Len() == 0 {
		return &LoadError{Kind: ErrGridEmpty}
	}
	if p.Grid.CellAt(p.Start) != StartSymbol {
		return &LoadError{Kind: ErrNoStartSymbol}
	}
	return nil
}
