package planner

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/nstehr/colony/model"
)

// Bot owns the state that outlives a single turn: the unexplored tiles and the
// enemy hills seen so far. Everything else is rebuilt every turn.
type Bot struct {
	log      *slog.Logger
	explorer *Explorer
	hills    *HillBook
}

// New creates a bot. Setup must be called before the first turn.
func New(log *slog.Logger, version string) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{log: log.With("version", version)}
}

// Setup runs once the grid size is known.
func (b *Bot) Setup(g model.Grid) {
	b.explorer = NewExplorer(g)
	b.hills = NewHillBook()
	b.log.Info("bot setup", "rows", g.Rows, "cols", g.Cols, "unseen", b.explorer.Len())
}

// Unseen returns how many tiles have never been in view. It is 0 before Setup.
func (b *Bot) Unseen() int {
	if b.explorer == nil {
		return 0
	}
	return b.explorer.Len()
}

// KnownEnemyHills returns every enemy hill observed so far.
func (b *Bot) KnownEnemyHills() []model.Tile {
	if b.hills == nil {
		return nil
	}
	return b.hills.Hills()
}

// Report summarizes what one turn decided.
type Report struct {
	Turn            int
	Ants            int
	Food            int
	Reserved        int // own hills blocked for the turn
	FoodRouted      int
	Unblocked       int
	Explorers       int
	Attackers       int
	Idle            int // ants left without an order
	Orders          int
	NewlySeen       int
	Unseen          int
	NewEnemyHills   int
	KnownEnemyHills int
	Elapsed         time.Duration
}

// DoTurn plans one turn against w. Orders are emitted through w as they are
// decided. If ctx is cancelled the turn stops early and ctx's error is
// returned; callers must then discard whatever w has buffered.
func (b *Bot) DoTurn(ctx context.Context, number int, w World) (Report, error) {
	start := time.Now()
	t := NewTurn(number, w, b.log.With("turn", number))
	t.Log.Debug("starting turn")

	ants := w.MyAnts()
	rep := Report{Turn: number, Ants: len(ants)}

	rep.Reserved = t.reserveHills()

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	t.Log.Debug("finding food")
	food := w.Food()
	rep.Food = len(food)
	n, err := t.gatherFood(ctx, ants, food)
	rep.FoodRouted = n
	if err != nil {
		return rep, err
	}

	rep.Unblocked = t.unblockHills(ants)

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	t.Log.Debug("exploring")
	rep.NewlySeen = b.explorer.Forget(w.Visible)
	rep.Unseen = b.explorer.Len()
	n, err = t.explore(ctx, ants, b.explorer.Unseen())
	rep.Explorers = n
	if err != nil {
		return rep, err
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	t.Log.Debug("attacking hills")
	rep.NewEnemyHills = b.hills.Observe(w.EnemyHills())
	rep.KnownEnemyHills = b.hills.Len()
	n, err = t.assault(ctx, ants, b.hills.Hills())
	rep.Attackers = n
	if err != nil {
		return rep, err
	}

	rep.Orders = t.Orders.Moves()
	rep.Idle = rep.Ants - rep.Orders
	rep.Elapsed = time.Since(start)
	t.Log.Debug("end of turn", "orders", rep.Orders, "idle", rep.Idle, "elapsed", rep.Elapsed)
	return rep, nil
}

// reserveHills keeps every ant that isn't already standing on an own hill
// from being routed onto one.
func (t *Turn) reserveHills() int {
	hills := t.World.MyHills()
	for _, h := range hills {
		t.Orders.Reserve(h)
	}
	return len(hills)
}

type pairing struct {
	dist int
	ant  model.Tile
	goal model.Tile
}

func comparePairings(a, b pairing) int {
	if c := cmp.Compare(a.dist, b.dist); c != 0 {
		return c
	}
	if c := a.ant.Compare(b.ant); c != 0 {
		return c
	}
	return a.goal.Compare(b.goal)
}

// gatherFood greedily matches ants to food, nearest pair first. A food tile
// gets at most one ant and an ant chases at most one food tile.
func (t *Turn) gatherFood(ctx context.Context, ants, food []model.Tile) (int, error) {
	pairs := make([]pairing, 0, len(ants)*len(food))
	for _, f := range food {
		for _, a := range ants {
			pairs = append(pairs, pairing{dist: t.World.Distance(a, f), ant: a, goal: f})
		}
	}
	slices.SortStableFunc(pairs, comparePairings)

	routed := 0
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return routed, err
		}
		if t.Targets.Targeted(p.goal) || t.Targets.Assigned(p.ant) || t.Orders.Moved(p.ant) {
			continue
		}
		if t.routeToward(p.ant, p.goal) {
			routed++
		}
	}
	return routed, nil
}

// unblockDirections is the order in which an ant idling on its own hill
// tries to step off.
var unblockDirections = []model.Direction{model.South, model.East, model.West, model.North}

// unblockHills steps ants off our own hills so new ants can spawn.
func (t *Turn) unblockHills(ants []model.Tile) int {
	onBoard := make(map[model.Tile]bool, len(ants))
	for _, a := range ants {
		onBoard[a] = true
	}
	moved := 0
	for _, h := range t.World.MyHills() {
		if !onBoard[h] || t.Orders.Moved(h) {
			continue
		}
		for _, d := range unblockDirections {
			if t.issueStep(h, d) {
				moved++
				break
			}
		}
	}
	return moved
}

// explore sends every ant without an order toward the nearest unseen tile it
// can take a step toward. Several ants may pick the same tile.
func (t *Turn) explore(ctx context.Context, ants, unseen []model.Tile) (int, error) {
	if len(unseen) == 0 {
		return 0, nil
	}
	type candidate struct {
		dist int
		tile model.Tile
	}
	cands := make([]candidate, len(unseen))

	sent := 0
	for _, a := range ants {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if t.Orders.Moved(a) || t.stuck(a) {
			continue
		}
		for i, u := range unseen {
			cands[i] = candidate{dist: t.World.Distance(a, u), tile: u}
		}
		// unseen is row-major, so a stable sort on distance breaks ties by tile.
		slices.SortStableFunc(cands, func(x, y candidate) int { return cmp.Compare(x.dist, y.dist) })
		for _, c := range cands {
			if t.routeToward(a, c.tile) {
				sent++
				break
			}
		}
	}
	return sent, nil
}

// assault routes every remaining ant toward the closest known enemy hill,
// nearest pairs first. Any number of ants may converge on one hill.
func (t *Turn) assault(ctx context.Context, ants, hills []model.Tile) (int, error) {
	var pairs []pairing
	for _, h := range hills {
		for _, a := range ants {
			if t.Orders.Moved(a) {
				continue
			}
			pairs = append(pairs, pairing{dist: t.World.Distance(a, h), ant: a, goal: h})
		}
	}
	slices.SortStableFunc(pairs, comparePairings)

	sent := 0
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if t.Orders.Moved(p.ant) {
			continue
		}
		if t.routeToward(p.ant, p.goal) {
			sent++
		}
	}
	return sent, nil
}
