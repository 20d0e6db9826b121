package ruleset

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/factkeeper/internal/tree"
	"github.com/solatis/factkeeper/internal/types"
)

func newRule(name string, priority int) types.Rule {
	r := types.NewRule(name, "evt")
	r.ID = types.NewRuleID()
	r.Priority = priority
	return r
}

func names(rules []types.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}

func TestDuplicate(t *testing.T) {
	src := newRule("Senior discount", 5)
	src.Conditions = tree.AddCondition(tree.AddGroup(src.Conditions))
	src.Event.Params = map[string]any{
		"percent": 10.0,
		"tiers":   []any{"gold"},
		"meta":    map[string]any{"source": "promo"},
	}
	other := newRule("Other", 1)
	set := []types.Rule{src, other}

	out, dup, err := Duplicate(set, src.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"Senior discount", "Other", "Senior discount (Copy)"}, names(out))
	assert.Len(t, set, 2, "input must not be mutated")
	assert.Equal(t, dup, out[2])

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, src.Priority, dup.Priority)
	assert.Equal(t, src.Enabled, dup.Enabled)
	assert.NotEqual(t, src.Conditions.ID, dup.Conditions.ID)
	require.Len(t, dup.Conditions.Conditions, 2)
	for i := range dup.Conditions.Conditions {
		assert.NotEqual(t, src.Conditions.Conditions[i].NodeID(), dup.Conditions.Conditions[i].NodeID())
	}

	dup.Event.Params["percent"] = 20.0
	dup.Event.Params["tiers"].([]any)[0] = "silver"
	dup.Event.Params["meta"].(map[string]any)["source"] = "manual"
	assert.Equal(t, 10.0, src.Event.Params["percent"])
	assert.Equal(t, []any{"gold"}, src.Event.Params["tiers"])
	assert.Equal(t, map[string]any{"source": "promo"}, src.Event.Params["meta"])
}

func TestDuplicate_NotFound(t *testing.T) {
	set := []types.Rule{newRule("a", 1)}
	out, _, err := Duplicate(set, "missing")
	assert.ErrorIs(t, err, types.ErrRuleNotFound)
	assert.Equal(t, set, out)
}

func TestReorder(t *testing.T) {
	set := []types.Rule{newRule("a", 1), newRule("b", 1), newRule("c", 1), newRule("d", 1)}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "move forward", from: 0, to: 2, want: []string{"b", "c", "a", "d"}},
		{name: "move backward", from: 3, to: 0, want: []string{"d", "a", "b", "c"}},
		{name: "same position", from: 1, to: 1, want: []string{"a", "b", "c", "d"}},
		{name: "to last", from: 1, to: 3, want: []string{"a", "c", "d", "b"}},
		{name: "from out of range", from: 4, to: 0, want: []string{"a", "b", "c", "d"}},
		{name: "to out of range", from: 0, to: -1, want: []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Reorder(set, tt.from, tt.to)))
			assert.Equal(t, []string{"a", "b", "c", "d"}, names(set))
		})
	}
}

func TestReorder_PropertyPermutation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reorder is a permutation", prop.ForAll(
		func(n, from, to int) bool {
			set := make([]types.Rule, n)
			for i := range set {
				set[i] = newRule(string(rune('a'+i)), 1)
			}

			out := Reorder(set, from, to)
			if len(out) != n {
				return false
			}
			got, want := names(out), names(set)
			sort.Strings(got)
			sort.Strings(want)
			for i := range got {
				if got[i] != want[i] {
					return false
				}
			}
			if from >= 0 && from < n && to >= 0 && to < n {
				return out[to].ID == set[from].ID
			}
			return true
		},
		gen.IntRange(0, 10),
		gen.IntRange(-2, 12),
		gen.IntRange(-2, 12),
	))

	properties.TestingRun(t)
}

func TestByPriority(t *testing.T) {
	set := []types.Rule{newRule("low", 1), newRule("high-1", 10), newRule("mid", 5), newRule("high-2", 10)}

	assert.Equal(t, []string{"high-1", "high-2", "mid", "low"}, names(ByPriority(set)))
	assert.Equal(t, []string{"low", "high-1", "mid", "high-2"}, names(set))
}

func TestEnabled(t *testing.T) {
	off := newRule("off", 1)
	off.Enabled = false
	set := []types.Rule{newRule("on-1", 1), off, newRule("on-2", 1)}

	assert.Equal(t, []string{"on-1", "on-2"}, names(Enabled(set)))
}

func TestFactInUse(t *testing.T) {
	r := newRule("r", 1)
	r.Conditions.Conditions = []types.Node{
		&types.ConditionGroup{ID: types.NewNodeID(), Type: types.GroupNot, Conditions: []types.Node{
			&types.Condition{ID: types.NewNodeID(), Fact: "age", Operator: types.OpEqual, Value: 1.0},
		}},
	}
	set := []types.Rule{newRule("empty", 1), r}

	assert.True(t, FactInUse(set, "age"))
	assert.False(t, FactInUse(set, "Age"))
	assert.False(t, FactInUse(set, "state"))
	assert.False(t, FactInUse(nil, "age"))
}

func TestFind(t *testing.T) {
	a, b := newRule("a", 1), newRule("b", 1)
	set := []types.Rule{a, b}

	assert.Equal(t, 1, Find(set, b.ID))
	assert.Equal(t, -1, Find(set, "missing"))
}
