package rules

import "github.com/nstehr/colony/planner"

// Env wraps a turn report and exposes helper methods callable from expr expressions.
type Env struct {
	Report   planner.Report
	GridSize int
	BudgetMs float64 // time allowed for the turn, 0 if unknown
}

func (e Env) Turn() int            { return e.Report.Turn }
func (e Env) Ants() int            { return e.Report.Ants }
func (e Env) Idle() int            { return e.Report.Idle }
func (e Env) Orders() int          { return e.Report.Orders }
func (e Env) Food() int            { return e.Report.Food }
func (e Env) FoodRouted() int      { return e.Report.FoodRouted }
func (e Env) Explorers() int       { return e.Report.Explorers }
func (e Env) Attackers() int       { return e.Report.Attackers }
func (e Env) Unblocked() int       { return e.Report.Unblocked }
func (e Env) Unseen() int          { return e.Report.Unseen }
func (e Env) NewlySeen() int       { return e.Report.NewlySeen }
func (e Env) KnownEnemyHills() int { return e.Report.KnownEnemyHills }
func (e Env) NewEnemyHills() int   { return e.Report.NewEnemyHills }

func (e Env) ElapsedMs() float64 {
	return float64(e.Report.Elapsed.Microseconds()) / 1000
}

// IdleRatio is the share of ants left without an order.
func (e Env) IdleRatio() float64 {
	if e.Report.Ants == 0 {
		return 0
	}
	return float64(e.Report.Idle) / float64(e.Report.Ants)
}

// Explored is the share of the map that has been in view at least once.
func (e Env) Explored() float64 {
	if e.GridSize == 0 {
		return 0
	}
	return 1 - float64(e.Report.Unseen)/float64(e.GridSize)
}

// BudgetUsed is the fraction of the turn budget the planner consumed.
func (e Env) BudgetUsed() float64 {
	if e.BudgetMs <= 0 {
		return 0
	}
	return e.ElapsedMs() / e.BudgetMs
}
