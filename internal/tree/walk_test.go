package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/factkeeper/internal/types"
)

// sampleTree returns all(age, any(state, not(member)), profile) plus handles
// to the interesting nodes.
func sampleTree() (root, anyGroup, notGroup *types.ConditionGroup, member *types.Condition) {
	member = leaf("member", true)
	notGroup = group(types.GroupNot, member)
	anyGroup = group(types.GroupAny, leaf("state", "NY"), notGroup)
	root = group(types.GroupAll, leaf("age", 65.0), anyGroup, leaf("age", 70.0), leaf("", ""))
	return root, anyGroup, notGroup, member
}

func TestFindNode(t *testing.T) {
	root, anyGroup, _, member := sampleTree()

	n, ok := FindNode(root, member.ID)
	require.True(t, ok)
	assert.Same(t, member, n)

	n, ok = FindNode(root, anyGroup.ID)
	require.True(t, ok)
	assert.Same(t, anyGroup, n)

	n, ok = FindNode(root, root.ID)
	require.True(t, ok)
	assert.Same(t, root, n)

	_, ok = FindNode(root, "missing")
	assert.False(t, ok)
}

func TestReplaceNode_PathCopying(t *testing.T) {
	root, anyGroup, notGroup, member := sampleTree()
	repl := leaf("member", false)

	out, ok := ReplaceNode(root, member.ID, repl)
	require.True(t, ok)

	// The target is replaced in the new tree only.
	n, found := FindNode(out, repl.ID)
	require.True(t, found)
	assert.Same(t, repl, n)
	_, found = FindNode(root, repl.ID)
	assert.False(t, found)

	// Groups on the path are copied, siblings are shared.
	assert.NotSame(t, root, out)
	newAny := out.Conditions[1].(*types.ConditionGroup)
	assert.NotSame(t, anyGroup, newAny)
	assert.NotSame(t, notGroup, newAny.Conditions[1])
	assert.Same(t, root.Conditions[0], out.Conditions[0])
	assert.Same(t, anyGroup.Conditions[0], newAny.Conditions[0])
	assert.Same(t, member, notGroup.Conditions[0])
}

func TestReplaceNode_Root(t *testing.T) {
	root, _, _, _ := sampleTree()

	repl := group(types.GroupAny)
	out, ok := ReplaceNode(root, root.ID, repl)
	require.True(t, ok)
	assert.Same(t, repl, out)

	out, ok = ReplaceNode(root, root.ID, leaf("age", 1.0))
	assert.False(t, ok, "the root must stay a group")
	assert.Same(t, root, out)
}

func TestReplaceNode_Missing(t *testing.T) {
	root, _, _, _ := sampleTree()

	out, ok := ReplaceNode(root, "missing", leaf("x", 1.0))
	assert.False(t, ok)
	assert.Same(t, root, out)
}

func TestDepthOf(t *testing.T) {
	root, anyGroup, notGroup, member := sampleTree()

	tests := []struct {
		name string
		id   types.NodeID
		want int
	}{
		{name: "root", id: root.ID, want: 0},
		{name: "direct leaf", id: root.Conditions[0].NodeID(), want: 1},
		{name: "nested group", id: anyGroup.ID, want: 1},
		{name: "doubly nested group", id: notGroup.ID, want: 2},
		{name: "deepest leaf", id: member.ID, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := DepthOf(root, tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, d)
		})
	}

	_, ok := DepthOf(root, "missing")
	assert.False(t, ok)
	assert.False(t, CanAddGroup(3), "groups may not be added below a depth-3 group")
}

func TestLeavesAndReferencedFacts(t *testing.T) {
	root, _, _, _ := sampleTree()

	leaves := Leaves(root)
	facts := make([]string, len(leaves))
	for i, l := range leaves {
		facts[i] = l.Fact
	}
	assert.Equal(t, []string{"age", "state", "member", "age", ""}, facts)

	assert.Equal(t, []string{"age", "state", "member"}, ReferencedFacts(root))
	assert.Empty(t, ReferencedFacts(group(types.GroupAll)))
	assert.Empty(t, Leaves(nil))
}
