package ipc

import "github.com/nstehr/colony/model"

// Message types exchanged with the engine bridge.
const (
	TypeSetup  = "setup"  // engine → bot, once per game
	TypeReady  = "ready"  // bot → engine, setup acknowledged
	TypeTurn   = "turn"   // engine → bot, once per turn
	TypeOrders = "orders" // bot → engine, reply to turn
	TypeEnd    = "end"    // engine → bot, game over
)

type SetupMessage struct {
	model.GameSetup
}

type ReadyMessage struct {
	Version string `json:"version"`
	GameID  string `json:"gameId,omitempty"`
}

type TurnMessage struct {
	model.TurnState
}

// OrdersMessage answers a turn. An empty order list is valid and means every
// ant stays put. Orders is always sent as a list, never null.
type OrdersMessage struct {
	Turn   int           `json:"turn"`
	Orders []model.Order `json:"orders"`
}

type EndMessage struct {
	Turn   int    `json:"turn"`
	Reason string `json:"reason,omitempty"`
	Scores []int  `json:"scores,omitempty"`
}
