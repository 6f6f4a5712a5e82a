package planner

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/nstehr/colony/model"
)

func tile(r, c int) model.Tile { return model.Tile{Row: r, Col: c} }

func TestRouteTowardTakesFirstStep(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.mine = []model.Tile{tile(0, 0)}
	w.food = []model.Tile{tile(0, 2)}
	w.paths[[2]model.Tile{tile(0, 0), tile(0, 2)}] = []model.Tile{tile(0, 1), tile(0, 2)}

	turn := NewTurn(1, w, nil)
	n, err := turn.gatherFood(context.Background(), w.mine, w.food)
	if err != nil {
		t.Fatalf("gatherFood: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 ant routed to food, got %d", n)
	}

	if src, ok := turn.Orders.Source(tile(0, 1)); !ok || src != tile(0, 0) {
		t.Errorf("order ledger (0,1) = %v, %v; want (0,0)", src, ok)
	}
	if turn.Orders.Len() != 1 {
		t.Errorf("order ledger has %d entries, want 1", turn.Orders.Len())
	}
	if u, ok := turn.Targets.Unit(tile(0, 2)); !ok || u != tile(0, 0) {
		t.Errorf("target ledger (0,2) = %v, %v; want (0,0)", u, ok)
	}
	if turn.Targets.Len() != 1 {
		t.Errorf("target ledger has %d entries, want 1", turn.Targets.Len())
	}
	if len(w.orders) != 1 || w.orders[0] != (model.Order{Tile: tile(0, 0), Dir: model.East}) {
		t.Errorf("orders = %v, want [(0,0) e]", w.orders)
	}
}

func TestRouteTowardNoPathHasNoSideEffects(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.mine = []model.Tile{tile(0, 0)}
	// Wall off the goal completely.
	goal := tile(5, 5)
	for _, d := range model.Directions {
		w.water[w.grid.Step(goal, d)] = true
	}

	turn := NewTurn(1, w, nil)
	if turn.routeToward(tile(0, 0), goal) {
		t.Fatal("routeToward should fail for an unreachable goal")
	}
	if turn.Orders.Len() != 0 || turn.Targets.Len() != 0 || len(w.orders) != 0 {
		t.Errorf("failed route left side effects: orders=%d targets=%d emitted=%d",
			turn.Orders.Len(), turn.Targets.Len(), len(w.orders))
	}
}

func TestIssueStepRejectsClaimedAndOccupied(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.mine = []model.Tile{tile(2, 2), tile(2, 4), tile(3, 2)}

	turn := NewTurn(1, w, nil)
	if !turn.issueStep(tile(2, 2), model.East) {
		t.Fatal("step onto free tile should succeed")
	}
	if turn.issueStep(tile(2, 4), model.West) {
		t.Error("second ant stepping onto a claimed tile should fail")
	}
	if turn.issueStep(tile(3, 2), model.North) {
		t.Error("stepping onto a tile occupied by an ant should fail")
	}
}

func TestFoodClaimedByNearerAnt(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.mine = []model.Tile{tile(0, 0), tile(0, 1)}
	w.food = []model.Tile{tile(1, 0)}

	b := New(nil, "test")
	b.Setup(w.grid)
	rep, err := b.DoTurn(context.Background(), 1, w)
	if err != nil {
		t.Fatalf("DoTurn: %v", err)
	}

	if rep.FoodRouted != 1 {
		t.Errorf("FoodRouted = %d, want 1", rep.FoodRouted)
	}
	if d, ok := w.orderFor(tile(0, 0)); !ok || d != model.South {
		t.Errorf("nearer ant order = %v, %v; want south toward the food", d, ok)
	}
	// The farther ant falls through to exploration.
	if rep.Explorers != 1 {
		t.Errorf("Explorers = %d, want 1", rep.Explorers)
	}
	if d, ok := w.orderFor(tile(0, 1)); !ok || d != model.East {
		t.Errorf("farther ant order = %v, %v; want east toward unseen ground", d, ok)
	}
	if rep.Orders != 2 || rep.Idle != 0 {
		t.Errorf("Orders=%d Idle=%d, want 2 and 0", rep.Orders, rep.Idle)
	}
}

func TestFoodMatchingIsDeterministic(t *testing.T) {
	run := func(food []model.Tile) []model.Order {
		w := newFakeWorld(10, 10)
		w.mine = []model.Tile{tile(0, 0), tile(0, 5)}
		w.food = food
		turn := NewTurn(1, w, nil)
		if _, err := turn.gatherFood(context.Background(), w.mine, w.food); err != nil {
			t.Fatalf("gatherFood: %v", err)
		}
		if u, _ := turn.Targets.Unit(tile(0, 2)); u != tile(0, 0) {
			t.Errorf("food (0,2) went to %v, want (0,0)", u)
		}
		if u, _ := turn.Targets.Unit(tile(0, 3)); u != tile(0, 5) {
			t.Errorf("food (0,3) went to %v, want (0,5)", u)
		}
		return w.orders
	}

	a := run([]model.Tile{tile(0, 2), tile(0, 3)})
	b := run([]model.Tile{tile(0, 3), tile(0, 2)})
	want := []model.Order{
		{Tile: tile(0, 0), Dir: model.East},
		{Tile: tile(0, 5), Dir: model.West},
	}
	for i := range want {
		if a[i] != want[i] || b[i] != want[i] {
			t.Errorf("order %d: got %v / %v, want %v", i, a[i], b[i], want[i])
		}
	}
}

func TestUnblockHill(t *testing.T) {
	hill := tile(5, 5)

	tests := []struct {
		name    string
		others  []model.Tile
		want    model.Direction
		blocked bool
	}{
		{"south free", nil, model.South, false},
		{"south taken", []model.Tile{tile(6, 5)}, model.East, false},
		{"south and east taken", []model.Tile{tile(6, 5), tile(5, 6)}, model.West, false},
		{"only north free", []model.Tile{tile(6, 5), tile(5, 6), tile(5, 4)}, model.North, false},
		{"boxed in", []model.Tile{tile(6, 5), tile(5, 6), tile(5, 4), tile(4, 5)}, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newFakeWorld(10, 10)
			w.myHills = []model.Tile{hill}
			w.mine = append([]model.Tile{hill}, tc.others...)

			turn := NewTurn(1, w, nil)
			turn.reserveHills()
			n := turn.unblockHills(w.mine)

			d, ok := w.orderFor(hill)
			if tc.blocked {
				if ok || n != 0 {
					t.Errorf("boxed-in ant should stay put, got %v", d)
				}
				return
			}
			if !ok || d != tc.want || n != 1 {
				t.Errorf("hill ant order = %v, %v (n=%d); want %v", d, ok, n, tc.want)
			}
		})
	}
}

func TestHillReservationBlocksRouting(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.myHills = []model.Tile{tile(5, 5)}
	w.mine = []model.Tile{tile(5, 4)}
	w.food = []model.Tile{tile(5, 6)}
	w.paths[[2]model.Tile{tile(5, 4), tile(5, 6)}] = []model.Tile{tile(5, 5), tile(5, 6)}

	turn := NewTurn(1, w, nil)
	turn.reserveHills()
	n, _ := turn.gatherFood(context.Background(), w.mine, w.food)
	if n != 0 || len(w.orders) != 0 {
		t.Errorf("ant was routed across its own hill: %v", w.orders)
	}
	if turn.Targets.Targeted(tile(5, 6)) {
		t.Error("failed route must not record a target")
	}
}

func TestRazedEnemyHillStillAttracts(t *testing.T) {
	b := New(nil, "test")
	grid := model.Grid{Rows: 10, Cols: 10}
	b.Setup(grid)

	enemyHill := model.Hill{Tile: tile(0, 3), Owner: 1}
	for _, turn := range []int{10, 20, 25} {
		w := newFakeWorld(10, 10)
		w.mine = []model.Tile{tile(0, 0)}
		w.visible = allVisible
		if turn == 10 {
			w.enemyHills = []model.Hill{enemyHill}
		}

		rep, err := b.DoTurn(context.Background(), turn, w)
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
		if rep.KnownEnemyHills != 1 {
			t.Errorf("turn %d: KnownEnemyHills = %d, want 1", turn, rep.KnownEnemyHills)
		}
		if d, ok := w.orderFor(tile(0, 0)); !ok || d != model.East {
			t.Errorf("turn %d: idle ant order = %v, %v; want east toward the hill", turn, d, ok)
		}
		if rep.Attackers != 1 {
			t.Errorf("turn %d: Attackers = %d, want 1", turn, rep.Attackers)
		}
	}
	if got := b.KnownEnemyHills(); len(got) != 1 || got[0] != enemyHill.Tile {
		t.Errorf("KnownEnemyHills() = %v", got)
	}
}

func TestAssaultSendsEachAntOnce(t *testing.T) {
	w := newFakeWorld(20, 20)
	w.mine = []model.Tile{tile(0, 0), tile(2, 0)}
	hills := []model.Tile{tile(0, 3), tile(0, 9)}

	turn := NewTurn(1, w, nil)
	n, err := turn.assault(context.Background(), w.mine, hills)
	if err != nil {
		t.Fatalf("assault: %v", err)
	}
	if n != 2 || len(w.orders) != 2 {
		t.Fatalf("expected one order per ant, got n=%d orders=%v", n, w.orders)
	}
	// Both ants head for the nearer hill; the later claim wins the ledger slot.
	if u, _ := turn.Targets.Unit(tile(0, 3)); u != tile(2, 0) {
		t.Errorf("nearest hill last claimed by %v, want (2,0)", u)
	}
	if turn.Targets.Targeted(tile(0, 9)) {
		t.Error("farther hill should not be targeted")
	}
}

func TestDoTurnCancelledEmitsNothing(t *testing.T) {
	w := newFakeWorld(10, 10)
	w.mine = []model.Tile{tile(0, 0), tile(4, 4)}
	w.food = []model.Tile{tile(0, 3)}

	b := New(nil, "test")
	b.Setup(w.grid)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.DoTurn(ctx, 1, w)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("DoTurn error = %v, want context.Canceled", err)
	}
	if len(w.orders) != 0 {
		t.Errorf("cancelled turn emitted orders: %v", w.orders)
	}
}

func TestDoTurnInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	grid := model.Grid{Rows: 12, Cols: 12}

	b := New(nil, "test")
	b.Setup(grid)
	seen := make(map[model.Tile]bool)
	prevUnseen := b.Unseen()

	for turn := 1; turn <= 8; turn++ {
		w := newFakeWorld(grid.Rows, grid.Cols)
		taken := make(map[model.Tile]bool)
		pick := func() model.Tile {
			for {
				t := tile(r.Intn(grid.Rows), r.Intn(grid.Cols))
				if !taken[t] {
					taken[t] = true
					return t
				}
			}
		}
		for i := 0; i < 12; i++ {
			w.water[pick()] = true
		}
		for i := 0; i < 20; i++ {
			w.mine = append(w.mine, pick())
		}
		for i := 0; i < 5; i++ {
			w.enemies = append(w.enemies, pick())
		}
		for i := 0; i < 6; i++ {
			w.food = append(w.food, pick())
		}
		// One hill under an ant, one empty.
		w.myHills = []model.Tile{w.mine[0], pick()}
		w.enemyHills = []model.Hill{{Tile: pick(), Owner: 1}}
		w.visible = func(t model.Tile) bool {
			for _, a := range w.mine {
				if grid.Within(a, t, 5) {
					return true
				}
			}
			return false
		}

		rep, err := b.DoTurn(context.Background(), turn, w)
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}

		dests := make(map[model.Tile]model.Tile)
		movers := make(map[model.Tile]bool)
		mine := make(map[model.Tile]bool)
		for _, a := range w.mine {
			mine[a] = true
		}
		for _, o := range w.orders {
			if !mine[o.Tile] {
				t.Errorf("turn %d: order for non-ant tile %v", turn, o.Tile)
			}
			if movers[o.Tile] {
				t.Errorf("turn %d: ant %v ordered twice", turn, o.Tile)
			}
			movers[o.Tile] = true

			dest := grid.Step(o.Tile, o.Dir)
			if prev, dup := dests[dest]; dup {
				t.Errorf("turn %d: %v and %v both sent to %v", turn, prev, o.Tile, dest)
			}
			dests[dest] = o.Tile
			if !w.Unoccupied(dest) {
				t.Errorf("turn %d: %v sent onto blocked tile %v", turn, o.Tile, dest)
			}
			for _, h := range w.myHills {
				if dest == h {
					t.Errorf("turn %d: %v routed onto own hill %v", turn, o.Tile, h)
				}
			}
		}
		if rep.Orders != len(w.orders) {
			t.Errorf("turn %d: report counts %d orders, world saw %d", turn, rep.Orders, len(w.orders))
		}

		if b.Unseen() > prevUnseen {
			t.Errorf("turn %d: unseen grew from %d to %d", turn, prevUnseen, b.Unseen())
		}
		prevUnseen = b.Unseen()
		for _, u := range b.explorer.Unseen() {
			if seen[u] {
				t.Errorf("turn %d: %v returned to the unseen set", turn, u)
			}
		}
		for _, tl := range grid.Tiles() {
			if w.Visible(tl) {
				seen[tl] = true
			}
		}
	}
}

func TestRouteTowardFollowsPathOnNarrowGrid(t *testing.T) {
	// With three rows, (1,0) is one step south of (0,0) and two steps north,
	// so both directions tie. Only south is on the path.
	w := newFakeWorld(3, 8)
	w.mine = []model.Tile{tile(0, 0)}

	turn := NewTurn(1, w, nil)
	if !turn.routeToward(tile(0, 0), tile(1, 0)) {
		t.Fatal("routeToward should succeed")
	}
	if d, ok := w.orderFor(tile(0, 0)); !ok || d != model.South {
		t.Errorf("order = %v, %v; want s", d, ok)
	}
	if !turn.Orders.Claimed(tile(1, 0)) || turn.Orders.Claimed(tile(2, 0)) {
		t.Error("the claimed tile should be the next tile on the path")
	}
}

func TestExploreFallsBackAndSkipsStuckAnts(t *testing.T) {
	ant := tile(5, 5)
	tests := []struct {
		name      string
		setup     func(w *fakeWorld, turn *Turn)
		wantSent  int
		wantDir   model.Direction // 0 means no order
		wantGoal  model.Tile
		wantPaths int
	}{
		{
			name: "nearest blocked, next candidate taken",
			setup: func(w *fakeWorld, _ *Turn) {
				// (5,7) is nearest but its only shortest path starts through (5,6).
				w.enemies = []model.Tile{tile(5, 6)}
			},
			wantSent:  1,
			wantDir:   model.North,
			wantGoal:  tile(2, 5),
			wantPaths: 2,
		},
		{
			name: "all neighbours blocked or claimed",
			setup: func(w *fakeWorld, turn *Turn) {
				w.enemies = []model.Tile{tile(4, 5), tile(5, 6)}
				w.water[tile(6, 5)] = true
				turn.Orders.Claim(tile(5, 4), tile(5, 3))
			},
			wantSent:  0,
			wantPaths: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newFakeWorld(10, 10)
			w.mine = []model.Tile{ant}
			turn := NewTurn(1, w, nil)
			tc.setup(w, turn)

			unseen := []model.Tile{tile(2, 5), tile(5, 7)}
			sent, err := turn.explore(context.Background(), w.mine, unseen)
			if err != nil {
				t.Fatalf("explore: %v", err)
			}
			if sent != tc.wantSent {
				t.Errorf("sent %d explorers, want %d", sent, tc.wantSent)
			}
			d, ok := w.orderFor(ant)
			if tc.wantDir == 0 {
				if ok {
					t.Errorf("stuck ant got order %v", d)
				}
			} else {
				if !ok || d != tc.wantDir {
					t.Errorf("order = %v, %v; want %v", d, ok, tc.wantDir)
				}
				if u, ok := turn.Targets.Unit(tc.wantGoal); !ok || u != ant {
					t.Errorf("target %v = %v, %v; want %v", tc.wantGoal, u, ok, ant)
				}
			}
			if w.pathCalls != tc.wantPaths {
				t.Errorf("Path called %d times, want %d", w.pathCalls, tc.wantPaths)
			}
		})
	}
}
