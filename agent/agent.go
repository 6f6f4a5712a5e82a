package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nstehr/colony/history"
	"github.com/nstehr/colony/ipc"
	"github.com/nstehr/colony/model"
	"github.com/nstehr/colony/planner"
	"github.com/nstehr/colony/rules"
	"github.com/nstehr/colony/world"
)

// ErrNoSetup is returned when a turn arrives before the game setup.
var ErrNoSetup = errors.New("turn received before setup")

// Options configures an Agent. Rules and History are optional.
type Options struct {
	Version    string
	TurnBudget time.Duration // 0 derives the budget from the engine's turnTime
	Rules      *rules.Engine
	History    *history.Store
	Logger     *slog.Logger
}

// Agent owns the decision-making for a single game session.
type Agent struct {
	ctx     context.Context
	version string
	budget  time.Duration
	log     *slog.Logger

	Bot     *planner.Bot
	Rules   *rules.Engine
	History *history.Store

	conn     *ipc.Connection
	setup    model.GameSetup
	started  bool
	gameID   uuid.UUID
	lastTurn int

	now func() time.Time
}

// New creates an agent whose turns run under ctx. Cancelling ctx aborts the
// turn in progress.
func New(ctx context.Context, opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		ctx:     ctx,
		version: opts.Version,
		budget:  opts.TurnBudget,
		log:     log,
		Bot:     planner.New(log, opts.Version),
		Rules:   opts.Rules,
		History: opts.History,
		now:     time.Now,
	}
}

// Register wires the agent's handlers into c.
func (a *Agent) Register(c *ipc.Connection) {
	a.conn = c
	c.RegisterHandler(ipc.TypeSetup, a.HandleSetup)
	c.RegisterHandler(ipc.TypeTurn, a.HandleTurn)
	c.RegisterHandler(ipc.TypeEnd, a.HandleEnd)
}

// GameID returns the history id of the current game, or uuid.Nil.
func (a *Agent) GameID() uuid.UUID { return a.gameID }

// HandleSetup prepares the bot for a new game and acknowledges with ready.
func (a *Agent) HandleSetup(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.SetupMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal setup: %w", err)
	}

	a.setup = msg.GameSetup
	a.started = true
	a.lastTurn = 0
	a.Bot.Setup(a.setup.Grid())

	a.gameID = uuid.Nil
	if a.History != nil {
		id, err := a.History.BeginGame(a.ctx, a.version, a.setup.Grid())
		if err != nil {
			// History is a debugging aid; play on without it.
			a.log.Error("history unavailable", "error", err)
		} else {
			a.gameID = id
		}
	}
	if a.conn != nil && a.gameID != uuid.Nil {
		a.conn.Game = a.gameID.String()
	}

	a.log.Info("game setup",
		"rows", a.setup.Rows,
		"cols", a.setup.Cols,
		"turns", a.setup.Turns,
		"turnTime", a.setup.TurnTime,
		"viewRadius2", a.setup.ViewRadius2,
		"game", a.gameID,
	)

	ready := ipc.ReadyMessage{Version: a.version}
	if a.gameID != uuid.Nil {
		ready.GameID = a.gameID.String()
	}
	resp, err := ipc.NewEnvelope(ipc.TypeReady, ready)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandleTurn plans one turn and replies with the orders. A turn that runs
// out of time is answered with no orders at all.
func (a *Agent) HandleTurn(env ipc.Envelope) (*ipc.Envelope, error) {
	received := a.now()
	if !a.started {
		return nil, ErrNoSetup
	}
	var msg ipc.TurnMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal turn: %w", err)
	}
	a.lastTurn = msg.Turn

	w := world.New(a.setup, msg.TurnState)
	budget := a.turnBudget()
	ctx, cancel := a.ctx, context.CancelFunc(func() {})
	if budget > 0 {
		// The clock starts when the message arrives, not when planning does.
		ctx, cancel = context.WithDeadline(a.ctx, received.Add(budget))
	}
	rep, err := a.Bot.DoTurn(ctx, msg.Turn, w)
	cancel()

	orders := w.Orders()
	if err != nil {
		if a.ctx.Err() != nil {
			// Session is shutting down; the engine gets nothing more.
			return nil, fmt.Errorf("turn %d: %w", msg.Turn, err)
		}
		a.log.Warn("turn abandoned", "turn", msg.Turn, "error", err, "discarded", len(orders))
		orders = nil
	}
	if orders == nil {
		// The engine expects a list; an empty one keeps every ant in place.
		orders = []model.Order{}
	}

	resp, encErr := ipc.NewEnvelope(ipc.TypeOrders, ipc.OrdersMessage{
		Turn:   msg.Turn,
		Orders: orders,
	})
	if encErr != nil {
		return nil, encErr
	}
	if err == nil {
		a.afterTurn(rep, orders, budget)
	}
	return &resp, nil
}

// HandleEnd closes out the game and ends the session.
func (a *Agent) HandleEnd(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.EndMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal end: %w", err)
	}
	turn := msg.Turn
	if turn == 0 {
		turn = a.lastTurn
	}

	a.log.Info("game over",
		"turn", turn,
		"reason", msg.Reason,
		"scores", msg.Scores,
		"unseen", a.Bot.Unseen(),
		"enemyHills", len(a.Bot.KnownEnemyHills()),
	)

	if a.History != nil && a.gameID != uuid.Nil {
		if err := a.History.EndGame(a.ctx, a.gameID, turn, outcome(msg)); err != nil {
			a.log.Error("failed to close game history", "error", err)
		}
	}
	a.started = false
	return nil, ipc.ErrDone
}

func (a *Agent) turnBudget() time.Duration {
	if a.budget > 0 {
		return a.budget
	}
	// Leave a tenth of the engine's allowance for the round trip.
	return time.Duration(a.setup.TurnTime) * time.Millisecond * 9 / 10
}

func (a *Agent) afterTurn(rep planner.Report, orders []model.Order, budget time.Duration) {
	if a.Rules != nil {
		a.Rules.Evaluate(rules.Env{
			Report:   rep,
			GridSize: a.setup.Grid().Size(),
			BudgetMs: float64(budget.Microseconds()) / 1000,
		}, a.log.With("turn", rep.Turn))
	}
	if a.History != nil && a.gameID != uuid.Nil {
		if err := a.History.RecordTurn(a.ctx, a.gameID, rep, orders); err != nil {
			a.log.Error("failed to record turn", "turn", rep.Turn, "error", err)
		}
	}
}

func outcome(msg ipc.EndMessage) string {
	if msg.Reason != "" {
		return msg.Reason
	}
	if len(msg.Scores) > 0 {
		return fmt.Sprintf("scores %v", msg.Scores)
	}
	return "finished"
}
