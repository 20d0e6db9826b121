// internal/rules/evaluate.go
package rules

import (
	"fmt"

	"github.com/solatis/factkeeper/internal/types"
)

/*
 * Condition tree evaluation.
 *
 * Evaluates a CompiledRule against an effective fact environment.
 *
 * Combinator semantics:
 *   - all: AND over children, short-circuit on first false; empty is true
 *   - any: OR over children, short-circuit on first true; empty is false
 *   - not: negation of the FIRST child only; further children are ignored;
 *          an empty not group is false
 *
 * Leaf evaluation: look up the fact's effective value, navigate the path for
 * array/object facts, then Compare. An unresolvable path yields Undefined,
 * which every operator treats as a non-match.
 *
 * Every evaluated leaf appends a ConditionEvaluation to the trace, in
 * evaluation order. Short-circuited leaves are not traced.
 */

// Evaluate runs the rule's tree and returns the root result plus the trace.
func Evaluate(rule *CompiledRule, env map[string]any) (bool, []types.ConditionEvaluation) {
	trace := make([]types.ConditionEvaluation, 0)
	result := evaluateGroup(rule.Root, env, &trace)
	return result, trace
}

// evaluateNode dispatches on compiled node kind.
func evaluateNode(node CompiledNode, env map[string]any, trace *[]types.ConditionEvaluation) bool {
	switch n := node.(type) {
	case *CompiledCondition:
		return evaluateCondition(n, env, trace)
	case *CompiledGroup:
		return evaluateGroup(n, env, trace)
	default:
		// Compile rejects unknown kinds; reaching here is a programming error.
		panic(fmt.Sprintf("unknown compiled node %T", node))
	}
}

// evaluateGroup applies the group's combinator to its children.
func evaluateGroup(group *CompiledGroup, env map[string]any, trace *[]types.ConditionEvaluation) bool {
	switch group.Type {
	case types.GroupAll:
		for _, child := range group.Children {
			if !evaluateNode(child, env, trace) {
				return false
			}
		}
		return true
	case types.GroupAny:
		for _, child := range group.Children {
			if evaluateNode(child, env, trace) {
				return true
			}
		}
		return false
	case types.GroupNot:
		if len(group.Children) == 0 {
			return false
		}
		return !evaluateNode(group.Children[0], env, trace)
	default:
		panic(fmt.Sprintf("unknown group type %q", group.Type))
	}
}

// evaluateCondition resolves the leaf's fact value and applies its operator.
func evaluateCondition(cond *CompiledCondition, env map[string]any, trace *[]types.ConditionEvaluation) bool {
	factValue := ResolveFactValue(cond, env)
	result := Compare(cond.Operator, factValue, cond.Value)

	traced := factValue
	if IsUndefined(traced) {
		traced = nil
	}
	*trace = append(*trace, types.ConditionEvaluation{
		ConditionID: cond.ID,
		Fact:        cond.Fact,
		Operator:    cond.Operator,
		Value:       cond.Value,
		FactValue:   traced,
		Result:      result,
	})
	return result
}

// ResolveFactValue returns the leaf's fact value, navigated by its path.
// Returns Undefined when the fact is absent or the path does not resolve.
func ResolveFactValue(cond *CompiledCondition, env map[string]any) any {
	value, ok := env[cond.Fact]
	if !ok {
		return Undefined
	}
	if !cond.Navigate {
		return value
	}
	resolved, err := Resolve(cond.Path, value)
	if err != nil || !resolved.Found {
		return Undefined
	}
	return resolved.Value
}
