package rules

import (
	"log/slog"

	"github.com/expr-lang/expr/vm"
)

// Rule is a condition → log line pair evaluated after every turn.
// The engine evaluates rules by priority and uses Category + Exclusive
// so one symptom doesn't get reported by several overlapping rules.
type Rule struct {
	Name         string     // human-readable identifier
	Priority     int        // higher = evaluated first
	Category     string     // grouping for exclusive semantics
	Exclusive    bool       // if true, blocks lower-priority rules in same category
	ConditionSrc string     // expr source
	Message      string     // logged when the condition holds
	Level        slog.Level // log level of the message
	Every        int        // minimum turns between firings; 0 fires every turn
	program      *vm.Program
}
