package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"

	"github.com/nstehr/colony/config"
)

// Engine runs compiled watch rules against each turn's report.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category.
type Engine struct {
	mu        sync.Mutex
	rules     []*Rule
	lastFired map[string]int // rule name → turn it last fired
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		rules:     compiled,
		lastFired: make(map[string]int),
	}, nil
}

// Evaluate logs every rule whose condition holds and returns their names.
func (e *Engine) Evaluate(env Env, log *slog.Logger) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if log == nil {
		log = slog.Default()
	}
	fired := make(map[string]bool) // category → exclusive rule already fired
	var names []string

	for _, r := range e.rules {
		if fired[r.Category] {
			continue
		}

		result, err := expr.Run(r.program, env)
		if err != nil {
			log.Warn("watch condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		// A throttled rule stays quiet and leaves its category open.
		if last, ok := e.lastFired[r.Name]; ok && r.Every > 0 && env.Turn()-last < r.Every {
			continue
		}
		if r.Exclusive {
			fired[r.Category] = true
		}
		e.lastFired[r.Name] = env.Turn()
		names = append(names, r.Name)

		log.Log(context.Background(), r.Level, r.Message,
			"rule", r.Name,
			"ants", env.Ants(),
			"idle", env.Idle(),
			"orders", env.Orders(),
			"food", env.Food(),
			"unseen", env.Unseen(),
			"enemyHills", env.KnownEnemyHills(),
			"elapsedMs", env.ElapsedMs(),
		)
	}
	return names
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int { return len(e.rules) }

// DefaultRules is the watch list used when the config defines none.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:         "turn-budget",
			Priority:     1000,
			Category:     "timing",
			Exclusive:    true,
			ConditionSrc: `BudgetUsed() > 0.8`,
			Message:      "turn planning close to the time limit",
			Level:        slog.LevelWarn,
		},
		{
			Name:         "no-ants",
			Priority:     900,
			Category:     "army",
			Exclusive:    true,
			ConditionSrc: `Ants() == 0`,
			Message:      "no ants left",
			Level:        slog.LevelWarn,
			Every:        25,
		},
		{
			Name:         "idle-ants",
			Priority:     500,
			Category:     "army",
			Exclusive:    true,
			ConditionSrc: `Ants() >= 4 && IdleRatio() > 0.5`,
			Message:      "most ants received no order",
			Level:        slog.LevelInfo,
			Every:        50,
		},
		{
			Name:         "enemy-hill-found",
			Priority:     400,
			Category:     "intel",
			ConditionSrc: `NewEnemyHills() > 0`,
			Message:      "enemy hill discovered",
			Level:        slog.LevelInfo,
		},
		{
			Name:         "map-explored",
			Priority:     300,
			Category:     "intel",
			ConditionSrc: `Unseen() == 0 && NewlySeen() > 0`,
			Message:      "whole map has been seen",
			Level:        slog.LevelInfo,
		},
		{
			Name:         "food-unclaimed",
			Priority:     100,
			Category:     "economy",
			ConditionSrc: `Food() > FoodRouted() && Idle() > 0`,
			Message:      "food left unclaimed while ants idle",
			Level:        slog.LevelDebug,
			Every:        20,
		},
	}
}

// FromConfig converts configured watch rules. Unknown levels default to INFO.
func FromConfig(watch []config.WatchRule) []*Rule {
	out := make([]*Rule, 0, len(watch))
	for _, w := range watch {
		level := slog.LevelInfo
		if l, ok := parseLevel(w.Level); ok {
			level = l
		}
		out = append(out, &Rule{
			Name:         w.Name,
			Priority:     w.Priority,
			Category:     w.Category,
			Exclusive:    w.Exclusive,
			ConditionSrc: w.When,
			Message:      w.Message,
			Level:        level,
			Every:        w.Every,
		})
	}
	return out
}

func parseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, false
	}
	return l, true
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		if r.Message == "" {
			r.Message = r.Name
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
