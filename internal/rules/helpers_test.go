package rules

import (
	"testing"

	"github.com/solatis/factkeeper/internal/types"
)

func leaf(fact string, op types.Operator, value any) *types.Condition {
	return &types.Condition{ID: types.NewNodeID(), Fact: fact, Operator: op, Value: value}
}

func pathLeaf(fact, path string, op types.Operator, value any) *types.Condition {
	c := leaf(fact, op, value)
	c.Path = path
	return c
}

func group(t types.GroupType, children ...types.Node) *types.ConditionGroup {
	g := types.NewConditionGroup(t)
	g.Conditions = append(g.Conditions, children...)
	return g
}

func ruleWith(name string, root *types.ConditionGroup) types.Rule {
	r := types.NewRule(name, name+"-event")
	r.ID = types.NewRuleID()
	r.Conditions = root
	return r
}

// testFacts declares one fact of every type.
func testFacts() []types.FactDefinition {
	return []types.FactDefinition{
		{ID: types.NewFactID(), Name: "age", Type: types.FactNumber, DefaultValue: 0.0},
		{ID: types.NewFactID(), Name: "state", Type: types.FactString},
		{ID: types.NewFactID(), Name: "member", Type: types.FactBoolean, DefaultValue: false},
		{ID: types.NewFactID(), Name: "tags", Type: types.FactArray},
		{ID: types.NewFactID(), Name: "profile", Type: types.FactObject},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(testFacts())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}
