package model

import (
	"cmp"
	"fmt"
)

// Tile is a (row, col) coordinate on the map. Tiles are compared by value
// and used directly as map keys.
type Tile struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (t Tile) String() string { return fmt.Sprintf("(%d,%d)", t.Row, t.Col) }

// Compare orders tiles row-major. It returns -1, 0 or +1 like cmp.Compare.
func (t Tile) Compare(o Tile) int {
	if c := cmp.Compare(t.Row, o.Row); c != 0 {
		return c
	}
	return cmp.Compare(t.Col, o.Col)
}

// Direction is one of the four compass moves. The byte values double as the
// order letters the game engine expects.
type Direction byte

const (
	North Direction = 'n'
	East  Direction = 'e'
	South Direction = 's'
	West  Direction = 'w'
)

// Directions lists every compass move in N, E, S, W order.
var Directions = []Direction{North, East, South, West}

func (d Direction) String() string { return string(rune(d)) }

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %q", byte(d))
	}
	return []byte{byte(d)}, nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	if len(b) != 1 || !Direction(b[0]).Valid() {
		return fmt.Errorf("invalid direction %q", b)
	}
	*d = Direction(b[0])
	return nil
}

// Valid reports whether d is one of the four compass moves.
func (d Direction) Valid() bool {
	return d == North || d == East || d == South || d == West
}

// Grid is the fixed-size map established at setup. Both axes wrap around,
// so every coordinate is taken modulo the grid size.
type Grid struct {
	Rows int
	Cols int
}

// Size returns the number of tiles on the grid.
func (g Grid) Size() int { return g.Rows * g.Cols }

// Wrap folds t back onto the torus.
func (g Grid) Wrap(t Tile) Tile {
	if g.Rows <= 0 || g.Cols <= 0 {
		return t
	}
	return Tile{Row: mod(t.Row, g.Rows), Col: mod(t.Col, g.Cols)}
}

// Step returns the tile reached by moving one square from t in direction d.
func (g Grid) Step(t Tile, d Direction) Tile {
	switch d {
	case North:
		t.Row--
	case South:
		t.Row++
	case East:
		t.Col++
	case West:
		t.Col--
	}
	return g.Wrap(t)
}

// Distance is the Manhattan distance between a and b, taking the shorter
// way around each axis.
func (g Grid) Distance(a, b Tile) int {
	return axisDelta(a.Row, b.Row, g.Rows) + axisDelta(a.Col, b.Col, g.Cols)
}

// Within reports whether b lies inside the circle of squared radius r2
// centred on a, measured with wrap-around.
func (g Grid) Within(a, b Tile, r2 int) bool {
	dr := axisDelta(a.Row, b.Row, g.Rows)
	dc := axisDelta(a.Col, b.Col, g.Cols)
	return dr*dr+dc*dc <= r2
}

// DirectionsTo returns the compass moves that bring from closer to to.
// When the target sits exactly half the grid away on an axis both ways
// around are equally short and both are returned.
func (g Grid) DirectionsTo(from, to Tile) []Direction {
	var out []Direction
	half := g.Rows / 2
	switch {
	case from.Row < to.Row:
		if to.Row-from.Row >= half {
			out = append(out, North)
		}
		if to.Row-from.Row <= half {
			out = append(out, South)
		}
	case to.Row < from.Row:
		if from.Row-to.Row >= half {
			out = append(out, South)
		}
		if from.Row-to.Row <= half {
			out = append(out, North)
		}
	}
	half = g.Cols / 2
	switch {
	case from.Col < to.Col:
		if to.Col-from.Col >= half {
			out = append(out, West)
		}
		if to.Col-from.Col <= half {
			out = append(out, East)
		}
	case to.Col < from.Col:
		if from.Col-to.Col >= half {
			out = append(out, East)
		}
		if from.Col-to.Col <= half {
			out = append(out, West)
		}
	}
	return out
}

// Tiles enumerates every tile in row-major order.
func (g Grid) Tiles() []Tile {
	out := make([]Tile, 0, g.Size())
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			out = append(out, Tile{Row: r, Col: c})
		}
	}
	return out
}

func axisDelta(a, b, size int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if size > 0 && size-d < d {
		return size - d
	}
	return d
}

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
