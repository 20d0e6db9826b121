// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/solatis/factkeeper/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a types.Rule against a fact Registry into a CompiledRule whose
 * leaves carry the resolved fact type and pre-parsed path segments.
 *
 * Compilation workflow:
 *   1. Walk the tree, switching exhaustively on node kind
 *   2. Leaves: check the fact exists, the operator is in the catalog, and
 *      parse the path (only for array/object facts)
 *   3. Groups: check the combinator is all/any/not
 *
 * Why compile per run: facts are referenced by name, never by pointer, so a
 * fact deleted and re-created with another type is only detectable against
 * the registry of the run at hand. Compile errors fail that one rule; the
 * engine records them and moves on.
 *
 * Child order is preserved exactly. Evaluation order and trace order both
 * follow the tree as the user arranged it.
 */

// CompiledNode is either a *CompiledCondition or a *CompiledGroup.
type CompiledNode interface {
	compiledNode()
}

// CompiledCondition is a pre-processed leaf ready for evaluation.
type CompiledCondition struct {
	ID       types.NodeID
	Fact     string
	FactType types.FactType
	Operator types.Operator
	Value    any
	Path     []types.PathSegment
	Navigate bool // true when Path applies (structured fact with non-empty path)
}

// CompiledGroup is a pre-processed combinator.
type CompiledGroup struct {
	ID       types.NodeID
	Type     types.GroupType
	Children []CompiledNode
}

func (*CompiledCondition) compiledNode() {}
func (*CompiledGroup) compiledNode()     {}

// CompiledRule is fully pre-processed and ready for evaluation.
type CompiledRule struct {
	RuleID   types.RuleID
	Name     string
	Priority int
	Event    types.RuleEvent
	Root     *CompiledGroup
}

// Compile validates and pre-processes a rule for evaluation.
func Compile(rule *types.Rule, registry *Registry) (*CompiledRule, error) {
	if rule.Conditions == nil {
		return nil, types.ErrMissingConditions
	}

	root, err := compileGroup(rule.Conditions, registry)
	if err != nil {
		return nil, err
	}

	return &CompiledRule{
		RuleID:   rule.ID,
		Name:     rule.Name,
		Priority: rule.Priority,
		Event:    rule.Event,
		Root:     root,
	}, nil
}

// compileNode dispatches on node kind. Unknown kinds (including nil) fail.
func compileNode(node types.Node, registry *Registry) (CompiledNode, error) {
	switch n := node.(type) {
	case *types.Condition:
		if n == nil {
			return nil, types.ErrUnknownNodeKind
		}
		return compileCondition(n, registry)
	case *types.ConditionGroup:
		if n == nil {
			return nil, types.ErrUnknownNodeKind
		}
		return compileGroup(n, registry)
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrUnknownNodeKind, node)
	}
}

// compileGroup validates the combinator and compiles children in order.
func compileGroup(group *types.ConditionGroup, registry *Registry) (*CompiledGroup, error) {
	if !group.Type.Valid() {
		return nil, fmt.Errorf("%w: group %s has combinator %q", types.ErrUnknownNodeKind, group.ID, group.Type)
	}

	compiled := &CompiledGroup{
		ID:       group.ID,
		Type:     group.Type,
		Children: make([]CompiledNode, 0, len(group.Conditions)),
	}
	for _, child := range group.Conditions {
		cc, err := compileNode(child, registry)
		if err != nil {
			return nil, err
		}
		compiled.Children = append(compiled.Children, cc)
	}
	return compiled, nil
}

// compileCondition resolves the fact and parses the path of one leaf.
// The path is ignored for scalar facts.
func compileCondition(cond *types.Condition, registry *Registry) (*CompiledCondition, error) {
	fact, ok := registry.Lookup(cond.Fact)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownFact, cond.Fact)
	}
	if _, ok := LookupOperator(cond.Operator); !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownOperator, cond.Operator)
	}

	compiled := &CompiledCondition{
		ID:       cond.ID,
		Fact:     cond.Fact,
		FactType: fact.Type,
		Operator: cond.Operator,
		Value:    Normalize(cond.Value),
	}

	if fact.Type.Structured() && cond.Path != "" {
		path, err := ParsePath(cond.Path)
		if err != nil {
			return nil, fmt.Errorf("condition %s: %w", cond.ID, err)
		}
		compiled.Path = path
		compiled.Navigate = len(path) > 0
	}

	return compiled, nil
}
