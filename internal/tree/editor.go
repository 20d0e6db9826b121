// Package tree implements structural edits on rule condition trees.
//
// Every edit is pure: it returns a new group and never mutates its input.
// Nodes not on the edited path are shared between the old and new trees, so
// callers must treat trees as immutable values once built.
package tree

import (
	"reflect"

	"github.com/solatis/factkeeper/internal/rules"
	"github.com/solatis/factkeeper/internal/types"
)

// MaxEditDepth is the nesting ceiling for adding groups through the editor.
// The data model itself accepts deeper trees (e.g. from import).
const MaxEditDepth = 3

// CanAddGroup reports whether a group at depth (root = 0) may receive a
// nested group.
func CanAddGroup(depth int) bool {
	return depth < MaxEditDepth
}

// NewCondition returns a blank leaf with a fresh identity.
func NewCondition() *types.Condition {
	return &types.Condition{
		ID:       types.NewNodeID(),
		Fact:     "",
		Operator: types.OpEqual,
		Value:    "",
	}
}

// AddCondition appends a blank leaf to g.
func AddCondition(g *types.ConditionGroup) *types.ConditionGroup {
	return appendChild(g, NewCondition())
}

// AddGroup appends an empty `all` group to g.
func AddGroup(g *types.ConditionGroup) *types.ConditionGroup {
	return appendChild(g, types.NewConditionGroup(types.GroupAll))
}

// ReplaceChild swaps the child at index i for n. Out of range is a no-op.
func ReplaceChild(g *types.ConditionGroup, i int, n types.Node) *types.ConditionGroup {
	if i < 0 || i >= len(g.Conditions) {
		return g
	}
	out := shallowCopy(g)
	out.Conditions = append([]types.Node(nil), g.Conditions...)
	out.Conditions[i] = n
	return out
}

// RemoveChild drops the child at index i. Remaining children keep their
// relative order. Out of range is a no-op.
func RemoveChild(g *types.ConditionGroup, i int) *types.ConditionGroup {
	if i < 0 || i >= len(g.Conditions) {
		return g
	}
	out := shallowCopy(g)
	out.Conditions = make([]types.Node, 0, len(g.Conditions)-1)
	out.Conditions = append(out.Conditions, g.Conditions[:i]...)
	out.Conditions = append(out.Conditions, g.Conditions[i+1:]...)
	return out
}

// SetCombinator changes the group type. Children are untouched, including
// the extra children of a `not` group.
func SetCombinator(g *types.ConditionGroup, t types.GroupType) *types.ConditionGroup {
	out := shallowCopy(g)
	out.Type = t
	return out
}

// ChangeFact points a leaf at another fact. The operator resets to equal
// and the value to the zero value of the fact's type. The path survives only
// when the new fact is navigable.
func ChangeFact(c *types.Condition, fact types.FactDefinition) *types.Condition {
	out := *c
	out.Fact = fact.Name
	out.Operator = types.OpEqual
	out.Value = types.ZeroValue(fact.Type)
	if !fact.Type.Structured() {
		out.Path = ""
	}
	return &out
}

// DeepCloneWithFreshIdentities copies g recursively. Every node receives a
// new identity and leaf values and params are deep-copied, so the clone
// shares no mutable state with g.
func DeepCloneWithFreshIdentities(g *types.ConditionGroup) *types.ConditionGroup {
	if g == nil {
		return nil
	}
	out := &types.ConditionGroup{
		ID:         types.NewNodeID(),
		Type:       g.Type,
		Conditions: make([]types.Node, 0, len(g.Conditions)),
	}
	for _, child := range g.Conditions {
		out.Conditions = append(out.Conditions, cloneNode(child))
	}
	return out
}

func cloneNode(n types.Node) types.Node {
	switch v := n.(type) {
	case *types.ConditionGroup:
		return DeepCloneWithFreshIdentities(v)
	case *types.Condition:
		if v == nil {
			return v
		}
		c := *v
		c.ID = types.NewNodeID()
		c.Value = CopyValue(v.Value)
		if v.Params != nil {
			c.Params = CopyValue(v.Params).(map[string]any)
		}
		return &c
	default:
		return n
	}
}

// CopyValue deep-copies JSON-shaped values. Other containers are normalized
// into fresh JSON shapes; scalars are immutable and returned as is.
func CopyValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = CopyValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[k] = CopyValue(elem)
		}
		return out
	case nil:
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Array, reflect.Struct:
		return rules.Normalize(v)
	default:
		return v
	}
}

func shallowCopy(g *types.ConditionGroup) *types.ConditionGroup {
	out := *g
	return &out
}

func appendChild(g *types.ConditionGroup, n types.Node) *types.ConditionGroup {
	out := shallowCopy(g)
	out.Conditions = make([]types.Node, 0, len(g.Conditions)+1)
	out.Conditions = append(out.Conditions, g.Conditions...)
	out.Conditions = append(out.Conditions, n)
	return out
}
