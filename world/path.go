package world

import (
	"slices"

	"github.com/beefsack/go-astar"

	"github.com/nstehr/colony/model"
)

// cell adapts a tile to astar.Pather. It is a comparable value so the
// search can key its node map on it.
type cell struct {
	w *World
	t model.Tile
}

func (c cell) PathNeighbors() []astar.Pather {
	out := make([]astar.Pather, 0, len(model.Directions))
	for _, d := range model.Directions {
		next := c.w.grid.Step(c.t, d)
		if c.w.Passable(next) {
			out = append(out, cell{w: c.w, t: next})
		}
	}
	return out
}

func (c cell) PathNeighborCost(astar.Pather) float64 { return 1 }

func (c cell) PathEstimatedCost(to astar.Pather) float64 {
	return float64(c.w.grid.Distance(c.t, to.(cell).t))
}

// Path returns the tiles leading from a to b, excluding a. Water is
// impassable; ants are ignored since they move every turn. It returns nil
// when b cannot be reached or equals a.
func (w *World) Path(a, b model.Tile) []model.Tile {
	if a == b || !w.Passable(b) {
		return nil
	}
	found, _, ok := astar.Path(cell{w: w, t: a}, cell{w: w, t: b})
	if !ok || len(found) < 2 {
		return nil
	}
	path := make([]model.Tile, len(found))
	for i, p := range found {
		path[i] = p.(cell).t
	}
	// The search walks parents back from the goal.
	if path[0] != a {
		slices.Reverse(path)
	}
	return path[1:]
}
