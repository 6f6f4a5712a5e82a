package planner

import "github.com/nstehr/colony/model"

// World is everything the planner needs to know about the current turn.
// Implementations own map state, visibility and pathfinding; the planner only
// combines their answers into orders.
type World interface {
	MyAnts() []model.Tile
	MyHills() []model.Tile
	Food() []model.Tile
	EnemyHills() []model.Hill

	// Visible reports whether any of our ants can see t this turn.
	Visible(t model.Tile) bool
	// Unoccupied reports whether an ant could move onto t this turn.
	Unoccupied(t model.Tile) bool

	Distance(a, b model.Tile) int
	Destination(t model.Tile, d model.Direction) model.Tile
	// Direction returns the moves from a toward b; the first is preferred.
	Direction(a, b model.Tile) []model.Direction
	// Path returns the tiles from a to b, excluding a. Nil means unreachable.
	Path(a, b model.Tile) []model.Tile

	// IssueOrder commits a move for the ant on t.
	IssueOrder(t model.Tile, d model.Direction)
}
