package planner

import "github.com/nstehr/colony/model"

// OrderLedger records which destination tiles have been claimed this turn and
// by which ant. A destination appears at most once, which is what keeps two
// ants from being sent onto the same square.
type OrderLedger struct {
	dest   map[model.Tile]claim
	movers map[model.Tile]bool
}

type claim struct {
	src      model.Tile
	reserved bool // held without a mover (own hills)
}

func NewOrderLedger() *OrderLedger {
	return &OrderLedger{
		dest:   make(map[model.Tile]claim),
		movers: make(map[model.Tile]bool),
	}
}

// Reserve blocks t for the rest of the turn without attributing it to an ant.
func (l *OrderLedger) Reserve(t model.Tile) {
	if _, ok := l.dest[t]; ok {
		return
	}
	l.dest[t] = claim{reserved: true}
}

// Claimed reports whether t is already a destination or a reservation.
func (l *OrderLedger) Claimed(t model.Tile) bool {
	_, ok := l.dest[t]
	return ok
}

// Claim records that the ant on src moves to dest. It reports false and
// changes nothing if dest is already claimed.
func (l *OrderLedger) Claim(dest, src model.Tile) bool {
	if l.Claimed(dest) {
		return false
	}
	l.dest[dest] = claim{src: src}
	l.movers[src] = true
	return true
}

// Moved reports whether the ant on src already has an order this turn.
func (l *OrderLedger) Moved(src model.Tile) bool { return l.movers[src] }

// Source returns the ant that claimed dest. ok is false for unclaimed tiles
// and for reservations.
func (l *OrderLedger) Source(dest model.Tile) (src model.Tile, ok bool) {
	c, found := l.dest[dest]
	if !found || c.reserved {
		return model.Tile{}, false
	}
	return c.src, true
}

// Reserved reports whether t was reserved without a mover.
func (l *OrderLedger) Reserved(t model.Tile) bool {
	c, ok := l.dest[t]
	return ok && c.reserved
}

// Len counts claims and reservations.
func (l *OrderLedger) Len() int { return len(l.dest) }

// Moves returns the number of ants that have been given an order.
func (l *OrderLedger) Moves() int { return len(l.movers) }

// TargetLedger records which ant has been committed to each goal tile.
type TargetLedger struct {
	goals map[model.Tile]model.Tile
	units map[model.Tile]int
}

func NewTargetLedger() *TargetLedger {
	return &TargetLedger{
		goals: make(map[model.Tile]model.Tile),
		units: make(map[model.Tile]int),
	}
}

// Assign commits unit to goal, replacing any earlier assignment of goal.
func (l *TargetLedger) Assign(goal, unit model.Tile) {
	if prev, ok := l.goals[goal]; ok {
		l.units[prev]--
		if l.units[prev] == 0 {
			delete(l.units, prev)
		}
	}
	l.goals[goal] = unit
	l.units[unit]++
}

// Targeted reports whether some ant is already heading for goal.
func (l *TargetLedger) Targeted(goal model.Tile) bool {
	_, ok := l.goals[goal]
	return ok
}

// Assigned reports whether unit has been committed to any goal.
func (l *TargetLedger) Assigned(unit model.Tile) bool { return l.units[unit] > 0 }

// Unit returns the ant committed to goal.
func (l *TargetLedger) Unit(goal model.Tile) (model.Tile, bool) {
	u, ok := l.goals[goal]
	return u, ok
}

func (l *TargetLedger) Len() int { return len(l.goals) }
