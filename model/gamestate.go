package model

// GameSetup carries the parameters the engine announces before turn 1.
type GameSetup struct {
	Rows          int   `json:"rows"`
	Cols          int   `json:"cols"`
	Turns         int   `json:"turns"`
	LoadTime      int   `json:"loadTime"` // milliseconds
	TurnTime      int   `json:"turnTime"` // milliseconds
	ViewRadius2   int   `json:"viewRadius2"`
	AttackRadius2 int   `json:"attackRadius2"`
	SpawnRadius2  int   `json:"spawnRadius2"`
	PlayerSeed    int64 `json:"playerSeed"`
}

func (s GameSetup) Grid() Grid { return Grid{Rows: s.Rows, Cols: s.Cols} }

// Me is the owner index the engine uses for our own ants and hills.
const Me = 0

// Ant is a live ant on the map. Owner 0 is us.
type Ant struct {
	Tile
	Owner int `json:"owner"`
}

// Hill is an ant hill. Owner 0 is us.
type Hill struct {
	Tile
	Owner int `json:"owner"`
}

// TurnState is the engine's view of the map for one turn. Water lists every
// water tile the engine has revealed so far, not only the ones in view.
type TurnState struct {
	Turn  int    `json:"turn"`
	Ants  []Ant  `json:"ants"`
	Hills []Hill `json:"hills"`
	Food  []Tile `json:"food"`
	Water []Tile `json:"water"`
}

// Order moves the ant standing on Tile one square in Dir.
type Order struct {
	Tile
	Dir Direction `json:"dir"`
}
