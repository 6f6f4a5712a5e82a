package planner

import "github.com/nstehr/colony/model"

// fakeWorld is a small in-memory World. Paths come from a breadth-first
// search over non-water tiles unless overridden in paths.
type fakeWorld struct {
	grid       model.Grid
	mine       []model.Tile
	enemies    []model.Tile
	myHills    []model.Tile
	enemyHills []model.Hill
	food       []model.Tile
	water      map[model.Tile]bool
	visible    func(model.Tile) bool
	paths      map[[2]model.Tile][]model.Tile

	orders    []model.Order
	pathCalls int
}

func newFakeWorld(rows, cols int) *fakeWorld {
	return &fakeWorld{
		grid:  model.Grid{Rows: rows, Cols: cols},
		water: make(map[model.Tile]bool),
		paths: make(map[[2]model.Tile][]model.Tile),
	}
}

func (w *fakeWorld) MyAnts() []model.Tile         { return w.mine }
func (w *fakeWorld) MyHills() []model.Tile        { return w.myHills }
func (w *fakeWorld) Food() []model.Tile           { return w.food }
func (w *fakeWorld) EnemyHills() []model.Hill     { return w.enemyHills }
func (w *fakeWorld) Distance(a, b model.Tile) int { return w.grid.Distance(a, b) }

func (w *fakeWorld) Visible(t model.Tile) bool {
	if w.visible == nil {
		return false
	}
	return w.visible(t)
}

func (w *fakeWorld) Unoccupied(t model.Tile) bool {
	if w.water[t] {
		return false
	}
	for _, a := range w.mine {
		if a == t {
			return false
		}
	}
	for _, a := range w.enemies {
		if a == t {
			return false
		}
	}
	return true
}

func (w *fakeWorld) Destination(t model.Tile, d model.Direction) model.Tile {
	return w.grid.Step(t, d)
}

func (w *fakeWorld) Direction(a, b model.Tile) []model.Direction {
	return w.grid.DirectionsTo(a, b)
}

func (w *fakeWorld) Path(a, b model.Tile) []model.Tile {
	w.pathCalls++
	if p, ok := w.paths[[2]model.Tile{a, b}]; ok {
		return p
	}
	if a == b || w.water[b] {
		return nil
	}
	parent := map[model.Tile]model.Tile{a: a}
	queue := []model.Tile{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == b {
			var path []model.Tile
			for t := b; t != a; t = parent[t] {
				path = append([]model.Tile{t}, path...)
			}
			return path
		}
		for _, d := range model.Directions {
			next := w.grid.Step(cur, d)
			if w.water[next] {
				continue
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}

func (w *fakeWorld) IssueOrder(t model.Tile, d model.Direction) {
	w.orders = append(w.orders, model.Order{Tile: t, Dir: d})
}

func (w *fakeWorld) orderFor(ant model.Tile) (model.Direction, bool) {
	for _, o := range w.orders {
		if o.Tile == ant {
			return o.Dir, true
		}
	}
	return 0, false
}

func allVisible(model.Tile) bool { return true }
