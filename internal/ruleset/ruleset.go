// Package ruleset implements whole-collection operations on ordered rule sets.
//
// A rule set is a plain []types.Rule whose order is the execution order.
// Operations are pure: they return new slices and leave their inputs intact.
package ruleset

import (
	"sort"

	"github.com/solatis/factkeeper/internal/tree"
	"github.com/solatis/factkeeper/internal/types"
)

// CopySuffix is appended to the name of a duplicated rule.
const CopySuffix = " (Copy)"

// Find returns the index of the rule with id, or -1.
func Find(rules []types.Rule, id types.RuleID) int {
	for i := range rules {
		if rules[i].ID == id {
			return i
		}
	}
	return -1
}

// Duplicate appends a deep copy of the rule with id to the end of the set.
// The copy gets a new rule id, fresh node identities, and the name suffixed
// with CopySuffix. Returns ErrRuleNotFound when id is absent.
func Duplicate(rules []types.Rule, id types.RuleID) ([]types.Rule, types.Rule, error) {
	i := Find(rules, id)
	if i < 0 {
		return rules, types.Rule{}, types.ErrRuleNotFound
	}

	src := rules[i]
	dup := src
	dup.ID = types.NewRuleID()
	dup.Name = src.Name + CopySuffix
	dup.Conditions = tree.DeepCloneWithFreshIdentities(src.Conditions)
	dup.Event = types.RuleEvent{Type: src.Event.Type, Params: copyParams(src.Event.Params)}

	out := make([]types.Rule, 0, len(rules)+1)
	out = append(out, rules...)
	out = append(out, dup)
	return out, dup, nil
}

// Reorder moves the rule at from to position to, shifting the rules in
// between. Out-of-range indices leave the set unchanged.
func Reorder(rules []types.Rule, from, to int) []types.Rule {
	if from < 0 || from >= len(rules) || to < 0 || to >= len(rules) {
		return rules
	}

	out := make([]types.Rule, 0, len(rules))
	out = append(out, rules[:from]...)
	out = append(out, rules[from+1:]...)

	moved := rules[from]
	out = append(out, types.Rule{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

// ByPriority returns the rules ordered by descending priority. Rules of
// equal priority keep their rule-set order. Display only; execution ignores
// priority.
func ByPriority(rules []types.Rule) []types.Rule {
	out := append([]types.Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Enabled returns the enabled rules in rule-set order.
func Enabled(rules []types.Rule) []types.Rule {
	out := make([]types.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// FactInUse reports whether any rule has a leaf referencing name.
func FactInUse(rules []types.Rule, name string) bool {
	for i := range rules {
		for _, fact := range tree.ReferencedFacts(rules[i].Conditions) {
			if fact == name {
				return true
			}
		}
	}
	return false
}

func copyParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	return tree.CopyValue(params).(map[string]any)
}
