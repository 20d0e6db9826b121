package workspace

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/factkeeper/internal/ruleset"
	"github.com/solatis/factkeeper/internal/tree"
	"github.com/solatis/factkeeper/internal/types"
)

// AddFact declares a new fact. The fact receives a fresh ID.
func (w *Workspace) AddFact(ctx context.Context, f types.FactDefinition) (types.FactDefinition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f.ID = types.NewFactID()
	if err := ruleset.ValidateFact(f, w.facts); err != nil {
		return types.FactDefinition{}, err
	}

	next := make([]types.FactDefinition, 0, len(w.facts)+1)
	next = append(next, w.facts...)
	w.facts = append(next, f)
	w.save(ctx)

	w.logger.Debug("fact added", zap.String("fact_id", string(f.ID)), zap.String("name", f.Name))
	return f, nil
}

// UpdateFact replaces the fact with id, keeping its ID. Renaming a fact that
// conditions still reference is refused with ErrFactInUse, since conditions
// bind to facts by name.
func (w *Workspace) UpdateFact(ctx context.Context, id types.FactID, f types.FactDefinition) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.factIndex(id)
	if i < 0 {
		return types.ErrFactNotFound
	}

	f.ID = id
	if err := ruleset.ValidateFact(f, w.facts); err != nil {
		return err
	}
	old := w.facts[i]
	if old.Name != f.Name && ruleset.FactInUse(w.rules, old.Name) {
		return fmt.Errorf("%w: %q cannot be renamed", types.ErrFactInUse, old.Name)
	}

	next := append([]types.FactDefinition{}, w.facts...)
	next[i] = f
	w.facts = next
	w.save(ctx)
	return nil
}

// DeleteFact removes the fact with id. A fact referenced by any rule is
// refused with ErrFactInUse.
func (w *Workspace) DeleteFact(ctx context.Context, id types.FactID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.factIndex(id)
	if i < 0 {
		return types.ErrFactNotFound
	}
	if ruleset.FactInUse(w.rules, w.facts[i].Name) {
		return fmt.Errorf("%w: %q", types.ErrFactInUse, w.facts[i].Name)
	}

	next := make([]types.FactDefinition, 0, len(w.facts)-1)
	next = append(next, w.facts[:i]...)
	w.facts = append(next, w.facts[i+1:]...)
	w.save(ctx)
	return nil
}

// AddRule appends r to the rule set with a fresh ID. A rule without a tree
// gets an empty `all` root.
func (w *Workspace) AddRule(ctx context.Context, r types.Rule) (types.Rule, error) {
	if r.Conditions == nil {
		r.Conditions = types.NewConditionGroup(types.GroupAll)
	}
	if err := ruleset.ValidateRuleFields(r); err != nil {
		return types.Rule{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	r.ID = types.NewRuleID()
	next := make([]types.Rule, 0, len(w.rules)+1)
	next = append(next, w.rules...)
	w.rules = append(next, r)
	w.save(ctx)

	w.logger.Debug("rule added", zap.String("rule_id", string(r.ID)), zap.String("name", r.Name))
	return r, nil
}

// UpdateRule replaces the rule with id in place, keeping its ID and position.
func (w *Workspace) UpdateRule(ctx context.Context, id types.RuleID, r types.Rule) error {
	if err := ruleset.ValidateRuleFields(r); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	i := ruleset.Find(w.rules, id)
	if i < 0 {
		return types.ErrRuleNotFound
	}
	r.ID = id
	w.replaceRule(i, r)
	w.save(ctx)
	return nil
}

// DeleteRule removes the rule with id.
func (w *Workspace) DeleteRule(ctx context.Context, id types.RuleID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := ruleset.Find(w.rules, id)
	if i < 0 {
		return types.ErrRuleNotFound
	}
	next := make([]types.Rule, 0, len(w.rules)-1)
	next = append(next, w.rules[:i]...)
	w.rules = append(next, w.rules[i+1:]...)
	w.save(ctx)
	return nil
}

// DuplicateRule appends a copy of the rule with id and returns the copy.
func (w *Workspace) DuplicateRule(ctx context.Context, id types.RuleID) (types.Rule, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, dup, err := ruleset.Duplicate(w.rules, id)
	if err != nil {
		return types.Rule{}, err
	}
	w.rules = next
	w.save(ctx)
	return dup, nil
}

// ReorderRules moves the rule at from to position to. Out-of-range indices
// are a no-op.
func (w *Workspace) ReorderRules(ctx context.Context, from, to int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.rules)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return
	}
	w.rules = ruleset.Reorder(w.rules, from, to)
	w.save(ctx)
}

// ToggleRuleEnabled flips the enabled flag and returns the new value.
func (w *Workspace) ToggleRuleEnabled(ctx context.Context, id types.RuleID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := ruleset.Find(w.rules, id)
	if i < 0 {
		return false, types.ErrRuleNotFound
	}
	r := w.rules[i]
	r.Enabled = !r.Enabled
	w.replaceRule(i, r)
	w.save(ctx)
	return r.Enabled, nil
}

// UpdateConditions replaces the condition tree of the rule with id.
func (w *Workspace) UpdateConditions(ctx context.Context, id types.RuleID, root *types.ConditionGroup) error {
	if root == nil {
		return types.ErrMissingConditions
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	i := ruleset.Find(w.rules, id)
	if i < 0 {
		return types.ErrRuleNotFound
	}
	r := w.rules[i]
	r.Conditions = root
	w.replaceRule(i, r)
	w.save(ctx)
	return nil
}

// ChangeConditionFact points the leaf nodeID of rule id at the fact named
// factName, resetting its operator and value for the fact's type.
func (w *Workspace) ChangeConditionFact(ctx context.Context, id types.RuleID, nodeID types.NodeID, factName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := ruleset.Find(w.rules, id)
	if i < 0 {
		return types.ErrRuleNotFound
	}

	var fact *types.FactDefinition
	for j := range w.facts {
		if w.facts[j].Name == factName {
			fact = &w.facts[j]
			break
		}
	}
	if fact == nil {
		return fmt.Errorf("%w: %q", types.ErrFactNotFound, factName)
	}

	r := w.rules[i]
	node, ok := tree.FindNode(r.Conditions, nodeID)
	if !ok {
		return fmt.Errorf("rule %s: condition %s not found", id, nodeID)
	}
	leaf, ok := node.(*types.Condition)
	if !ok {
		return fmt.Errorf("rule %s: node %s is a group, not a condition", id, nodeID)
	}

	root, _ := tree.ReplaceNode(r.Conditions, nodeID, tree.ChangeFact(leaf, *fact))
	r.Conditions = root
	w.replaceRule(i, r)
	w.save(ctx)
	return nil
}
