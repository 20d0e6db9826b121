// internal/types/rules.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

/*
 * Domain types for rule definition and evaluation.
 *
 * A rule pairs one condition tree with one event. The tree is a recursive sum
 * type: every Node is either a Condition (leaf, atomic fact comparison) or a
 * ConditionGroup (all/any/not combinator over child nodes). Consumers switch
 * on the concrete type; an unrecognised node is an error, never a silent
 * fall-through.
 *
 * Key types:
 *   - Node: leaf-or-group union, discriminated by Kind()
 *   - Condition: fact/operator/value comparison with optional path
 *   - ConditionGroup: combinator with ordered children
 *   - Rule: named, prioritized tree + event, toggleable via Enabled
 *   - PathSegment: one component of a structured-data path
 *
 * Wire format: a JSON object is a group iff it carries both "type" and
 * "conditions"; anything else decodes as a leaf condition.
 */

// Operator names a comparison from the operator catalog (internal/rules).
type Operator string

const (
	OpEqual                Operator = "equal"
	OpNotEqual             Operator = "notEqual"
	OpLessThan             Operator = "lessThan"
	OpLessThanInclusive    Operator = "lessThanInclusive"
	OpGreaterThan          Operator = "greaterThan"
	OpGreaterThanInclusive Operator = "greaterThanInclusive"
	OpIn                   Operator = "in"
	OpNotIn                Operator = "notIn"
	OpContains             Operator = "contains"
	OpDoesNotContain       Operator = "doesNotContain"
)

// GroupType is the boolean combinator of a ConditionGroup.
type GroupType string

const (
	GroupAll GroupType = "all"
	GroupAny GroupType = "any"
	GroupNot GroupType = "not"
)

// Valid reports whether g is all, any or not.
func (g GroupType) Valid() bool {
	return g == GroupAll || g == GroupAny || g == GroupNot
}

// NodeKind tags the two node variants of a condition tree.
type NodeKind int

const (
	NodeLeaf NodeKind = iota + 1
	NodeGroup
)

func (k NodeKind) String() string {
	switch k {
	case NodeLeaf:
		return "leaf"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is either a *Condition or a *ConditionGroup.
type Node interface {
	NodeID() NodeID
	Kind() NodeKind
}

// Condition is a leaf: an atomic comparison of a fact's (optionally
// path-navigated) value against a literal.
type Condition struct {
	ID       NodeID         `json:"id"`
	Fact     string         `json:"fact"`
	Operator Operator       `json:"operator"`
	Value    any            `json:"value"`
	Path     string         `json:"path,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

func (c *Condition) NodeID() NodeID { return c.ID }
func (c *Condition) Kind() NodeKind { return NodeLeaf }

// ConditionGroup is an internal node. A `not` group is evaluated using only
// its first child; extra children are tolerated and ignored.
type ConditionGroup struct {
	ID         NodeID    `json:"id"`
	Type       GroupType `json:"type"`
	Conditions []Node    `json:"conditions"`
}

func (g *ConditionGroup) NodeID() NodeID { return g.ID }
func (g *ConditionGroup) Kind() NodeKind { return NodeGroup }

// NewConditionGroup returns an empty group with a fresh identity.
func NewConditionGroup(t GroupType) *ConditionGroup {
	return &ConditionGroup{ID: NewNodeID(), Type: t, Conditions: []Node{}}
}

// MarshalJSON always emits conditions as an array, never null.
func (g *ConditionGroup) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID         NodeID    `json:"id"`
		Type       GroupType `json:"type"`
		Conditions []Node    `json:"conditions"`
	}
	conds := g.Conditions
	if conds == nil {
		conds = []Node{}
	}
	return json.Marshal(alias{ID: g.ID, Type: g.Type, Conditions: conds})
}

// UnmarshalJSON decodes children through UnmarshalNode.
func (g *ConditionGroup) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         NodeID            `json:"id"`
		Type       GroupType         `json:"type"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.ID = raw.ID
	g.Type = raw.Type
	g.Conditions = make([]Node, 0, len(raw.Conditions))
	for i, item := range raw.Conditions {
		node, err := UnmarshalNode(item)
		if err != nil {
			return fmt.Errorf("conditions[%d]: %w", i, err)
		}
		g.Conditions = append(g.Conditions, node)
	}
	return nil
}

// UnmarshalNode decodes one tree node. An object carrying both "type" and
// "conditions" is a group; any other object is a leaf condition.
func UnmarshalNode(data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrUnknownNodeKind
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}
	_, hasType := probe["type"]
	_, hasConditions := probe["conditions"]

	if hasType && hasConditions {
		var g ConditionGroup
		if err := json.Unmarshal(trimmed, &g); err != nil {
			return nil, err
		}
		return &g, nil
	}

	var c Condition
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// RuleEvent is the opaque signal emitted when a rule's tree evaluates true.
type RuleEvent struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// DefaultPriority is assigned to new rules. Priority orders rules in
// priority views only; execution follows rule-set order.
const DefaultPriority = 1

// Rule pairs one exclusively owned condition tree with one event.
type Rule struct {
	ID          RuleID          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Priority    int             `json:"priority"`
	Conditions  *ConditionGroup `json:"conditions"`
	Event       RuleEvent       `json:"event"`
	Enabled     bool            `json:"enabled"`
}

// NewRule returns an enabled rule with default priority and an empty `all`
// root group. The rule ID is left empty; stores assign it on insert.
func NewRule(name, eventType string) Rule {
	return Rule{
		Name:       name,
		Priority:   DefaultPriority,
		Conditions: NewConditionGroup(GroupAll),
		Event:      RuleEvent{Type: eventType},
		Enabled:    true,
	}
}

// PathSegment represents one component of a field path.
// String for object keys, int for array indices, wildcard for array expansion.
type PathSegment struct {
	Key      string // object key (mutually exclusive with Index/Wildcard)
	Index    int    // array index (mutually exclusive with Key/Wildcard)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // true = wildcard segment
}

// Resource limits enforced when compiling condition paths.
const (
	// MaxPathDepth prevents stack overflow during recursive path resolution.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion to prevent combinatorial explosion.
	// 2 wildcards allow patterns like $.orders[*].items[*].price without exponential fan-out.
	MaxNestedWildcards = 2
)
