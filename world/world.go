package world

import (
	"log/slog"

	"github.com/nstehr/colony/model"
)

// World answers the planner's questions about a single turn. It is built
// from the engine's snapshot and discarded when the turn ends.
type World struct {
	grid        model.Grid
	viewRadius2 int

	myAnts     []model.Tile
	myHills    []model.Tile
	food       []model.Tile
	enemyHills []model.Hill

	ants  map[model.Tile]int // tile → owner
	water map[model.Tile]bool

	orders []model.Order
}

// New indexes one turn's snapshot.
func New(setup model.GameSetup, ts model.TurnState) *World {
	w := &World{
		grid:        setup.Grid(),
		viewRadius2: setup.ViewRadius2,
		ants:        make(map[model.Tile]int, len(ts.Ants)),
		water:       make(map[model.Tile]bool, len(ts.Water)),
	}
	for _, a := range ts.Ants {
		t := w.grid.Wrap(a.Tile)
		w.ants[t] = a.Owner
		if a.Owner == model.Me {
			w.myAnts = append(w.myAnts, t)
		}
	}
	for _, h := range ts.Hills {
		h.Tile = w.grid.Wrap(h.Tile)
		if h.Owner == model.Me {
			w.myHills = append(w.myHills, h.Tile)
		} else {
			w.enemyHills = append(w.enemyHills, h)
		}
	}
	for _, f := range ts.Food {
		w.food = append(w.food, w.grid.Wrap(f))
	}
	for _, t := range ts.Water {
		w.water[w.grid.Wrap(t)] = true
	}
	slog.Debug("world indexed",
		"turn", ts.Turn,
		"ants", len(w.myAnts),
		"enemyAnts", len(w.ants)-len(w.myAnts),
		"food", len(w.food),
		"hills", len(w.myHills),
		"enemyHills", len(w.enemyHills),
		"water", len(w.water),
	)
	return w
}

func (w *World) MyAnts() []model.Tile     { return w.myAnts }
func (w *World) MyHills() []model.Tile    { return w.myHills }
func (w *World) Food() []model.Tile       { return w.food }
func (w *World) EnemyHills() []model.Hill { return w.enemyHills }

// Visible reports whether t lies within view radius of one of our ants.
func (w *World) Visible(t model.Tile) bool {
	for _, a := range w.myAnts {
		if w.grid.Within(a, t, w.viewRadius2) {
			return true
		}
	}
	return false
}

// Unoccupied reports whether t is land with no live ant on it. Food does not
// block.
func (w *World) Unoccupied(t model.Tile) bool {
	if w.water[t] {
		return false
	}
	_, taken := w.ants[t]
	return !taken
}

// Passable reports whether t is not known to be water.
func (w *World) Passable(t model.Tile) bool { return !w.water[t] }

func (w *World) Distance(a, b model.Tile) int { return w.grid.Distance(a, b) }

func (w *World) Destination(t model.Tile, d model.Direction) model.Tile {
	return w.grid.Step(t, d)
}

func (w *World) Direction(a, b model.Tile) []model.Direction {
	return w.grid.DirectionsTo(a, b)
}

// IssueOrder buffers a move. Nothing reaches the engine until the caller
// sends Orders.
func (w *World) IssueOrder(t model.Tile, d model.Direction) {
	w.orders = append(w.orders, model.Order{Tile: t, Dir: d})
}

// Orders returns the moves issued so far, in issue order.
func (w *World) Orders() []model.Order { return w.orders }
