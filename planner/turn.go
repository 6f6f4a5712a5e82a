package planner

import (
	"log/slog"

	"github.com/nstehr/colony/model"
)

// Turn is the state of one planning pass: the world snapshot, both ledgers
// and a logger already tagged with the turn number. It is created fresh each
// turn and thrown away afterwards.
type Turn struct {
	Number  int
	World   World
	Orders  *OrderLedger
	Targets *TargetLedger
	Log     *slog.Logger
}

// NewTurn builds an empty turn. A nil logger falls back to slog.Default.
func NewTurn(number int, w World, log *slog.Logger) *Turn {
	if log == nil {
		log = slog.Default()
	}
	return &Turn{
		Number:  number,
		World:   w,
		Orders:  NewOrderLedger(),
		Targets: NewTargetLedger(),
		Log:     log,
	}
}

// issueStep moves the ant on unit one square in d if the destination is free
// and nobody else has claimed it. This is the only place orders are emitted.
func (t *Turn) issueStep(unit model.Tile, d model.Direction) bool {
	dest := t.World.Destination(unit, d)
	if !t.World.Unoccupied(dest) || t.Orders.Claimed(dest) {
		return false
	}
	t.World.IssueOrder(unit, d)
	t.Orders.Claim(dest, unit)
	t.Log.Debug("order issued", "ant", unit, "dir", d, "dest", dest)
	return true
}

// routeToward takes the first step of a path from unit to goal. On success
// goal is recorded as unit's target.
func (t *Turn) routeToward(unit, goal model.Tile) bool {
	path := t.World.Path(unit, goal)
	if len(path) == 0 {
		return false
	}
	dir, ok := t.stepOnto(unit, path[0])
	if !ok || !t.issueStep(unit, dir) {
		return false
	}
	t.Targets.Assign(goal, unit)
	return true
}

// stepOnto picks the direction from unit that lands on next. On grids three
// tiles wide Direction can offer both ways round; only one of them follows the
// path.
func (t *Turn) stepOnto(unit, next model.Tile) (model.Direction, bool) {
	dirs := t.World.Direction(unit, next)
	for _, d := range dirs {
		if t.World.Destination(unit, d) == next {
			return d, true
		}
	}
	if len(dirs) == 0 {
		return 0, false
	}
	return dirs[0], true
}

// stuck reports whether no step from unit can succeed this turn, in which
// case every route attempt would fail as well.
func (t *Turn) stuck(unit model.Tile) bool {
	for _, d := range model.Directions {
		dest := t.World.Destination(unit, d)
		if t.World.Unoccupied(dest) && !t.Orders.Claimed(dest) {
			return false
		}
	}
	return true
}
