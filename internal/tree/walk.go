// internal/tree/walk.go
package tree

import (
	"github.com/solatis/factkeeper/internal/types"
)

// FindNode returns the node with identity id, searching depth-first.
func FindNode(root *types.ConditionGroup, id types.NodeID) (types.Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		return root, true
	}
	for _, child := range root.Conditions {
		switch n := child.(type) {
		case *types.Condition:
			if n != nil && n.ID == id {
				return n, true
			}
		case *types.ConditionGroup:
			if found, ok := FindNode(n, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// ReplaceNode swaps the node with identity id for n. Only the groups on the
// path from root to the target are copied. Returns root unchanged and false
// when id is absent. Replacing the root itself requires n to be a group.
func ReplaceNode(root *types.ConditionGroup, id types.NodeID, n types.Node) (*types.ConditionGroup, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		g, ok := n.(*types.ConditionGroup)
		if !ok {
			return root, false
		}
		return g, true
	}
	for i, child := range root.Conditions {
		switch c := child.(type) {
		case *types.Condition:
			if c != nil && c.ID == id {
				return ReplaceChild(root, i, n), true
			}
		case *types.ConditionGroup:
			if replaced, ok := ReplaceNode(c, id, n); ok {
				return ReplaceChild(root, i, replaced), true
			}
		}
	}
	return root, false
}

// DepthOf returns the nesting depth of id, with the root at 0.
func DepthOf(root *types.ConditionGroup, id types.NodeID) (int, bool) {
	return depthOf(root, id, 0)
}

func depthOf(g *types.ConditionGroup, id types.NodeID, depth int) (int, bool) {
	if g == nil {
		return 0, false
	}
	if g.ID == id {
		return depth, true
	}
	for _, child := range g.Conditions {
		switch n := child.(type) {
		case *types.Condition:
			if n != nil && n.ID == id {
				return depth + 1, true
			}
		case *types.ConditionGroup:
			if d, ok := depthOf(n, id, depth+1); ok {
				return d, true
			}
		}
	}
	return 0, false
}

// Leaves returns every leaf in depth-first, left-to-right order.
func Leaves(root *types.ConditionGroup) []*types.Condition {
	var out []*types.Condition
	walkLeaves(root, func(c *types.Condition) {
		out = append(out, c)
	})
	return out
}

// ReferencedFacts returns the distinct fact names referenced by leaves, in
// first-seen order. Blank fact names are skipped.
func ReferencedFacts(root *types.ConditionGroup) []string {
	seen := make(map[string]struct{})
	var out []string
	walkLeaves(root, func(c *types.Condition) {
		if c.Fact == "" {
			return
		}
		if _, ok := seen[c.Fact]; ok {
			return
		}
		seen[c.Fact] = struct{}{}
		out = append(out, c.Fact)
	})
	return out
}

func walkLeaves(g *types.ConditionGroup, fn func(*types.Condition)) {
	if g == nil {
		return
	}
	for _, child := range g.Conditions {
		switch n := child.(type) {
		case *types.Condition:
			if n != nil {
				fn(n)
			}
		case *types.ConditionGroup:
			walkLeaves(n, fn)
		}
	}
}
