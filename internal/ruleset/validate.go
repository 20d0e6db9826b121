// internal/ruleset/validate.go
package ruleset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/solatis/factkeeper/internal/rules"
	"github.com/solatis/factkeeper/internal/tree"
	"github.com/solatis/factkeeper/internal/types"
)

var factNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ReferenceError reports a leaf whose fact is not declared.
type ReferenceError struct {
	ConditionID types.NodeID
	Fact        string
}

func (e *ReferenceError) Error() string {
	if e.Fact == "" {
		return fmt.Sprintf("condition %s: no fact selected", e.ConditionID)
	}
	return fmt.Sprintf("condition %s: %s %q", e.ConditionID, types.ErrUnknownFact, e.Fact)
}

func (e *ReferenceError) Unwrap() error {
	return types.ErrUnknownFact
}

// ValidateRuleConditions returns one *ReferenceError per leaf whose fact is
// not among facts, in tree order. Fact names match exactly.
func ValidateRuleConditions(rule types.Rule, facts []types.FactDefinition) []error {
	declared := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		declared[f.Name] = struct{}{}
	}

	var errs []error
	for _, leaf := range tree.Leaves(rule.Conditions) {
		if _, ok := declared[leaf.Fact]; !ok {
			errs = append(errs, &ReferenceError{ConditionID: leaf.ID, Fact: leaf.Fact})
		}
	}
	return errs
}

// ValidateRule checks the rule's own fields and its fact references.
// All problems are joined into one error; nil means valid.
func ValidateRule(rule types.Rule, facts []types.FactDefinition) error {
	errs := []error{ValidateRuleFields(rule)}
	errs = append(errs, ValidateRuleConditions(rule, facts)...)
	return errors.Join(errs...)
}

// ValidateRuleFields checks name, event type, priority and tree shape
// without looking at fact references. Editors use it on save, where a leaf
// may still be waiting for its fact to be chosen.
func ValidateRuleFields(rule types.Rule) error {
	var errs []error
	if strings.TrimSpace(rule.Name) == "" {
		errs = append(errs, types.ErrEmptyRuleName)
	}
	if strings.TrimSpace(rule.Event.Type) == "" {
		errs = append(errs, types.ErrEmptyEventType)
	}
	if rule.Priority < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", types.ErrNegativePriority, rule.Priority))
	}
	if rule.Conditions == nil {
		errs = append(errs, types.ErrMissingConditions)
	} else if err := validateCombinators(rule.Conditions); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateCombinators(g *types.ConditionGroup) error {
	if !g.Type.Valid() {
		return fmt.Errorf("%w: group %s has combinator %q", types.ErrUnknownNodeKind, g.ID, g.Type)
	}
	for _, child := range g.Conditions {
		switch n := child.(type) {
		case *types.ConditionGroup:
			if err := validateCombinators(n); err != nil {
				return err
			}
		case *types.Condition:
			if _, ok := rules.LookupOperator(n.Operator); !ok {
				return fmt.Errorf("%w: condition %s uses %q", types.ErrUnknownOperator, n.ID, n.Operator)
			}
		default:
			return fmt.Errorf("%w: %T", types.ErrUnknownNodeKind, child)
		}
	}
	return nil
}

// ValidateFact checks a fact definition against the existing facts.
// The fact whose ID equals f.ID is excluded from the uniqueness check, so an
// edit may keep its own name.
func ValidateFact(f types.FactDefinition, existing []types.FactDefinition) error {
	if !factNamePattern.MatchString(f.Name) {
		return fmt.Errorf("%w: %q", types.ErrInvalidFactName, f.Name)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidFactType, f.Type)
	}
	for _, other := range existing {
		if f.ID != "" && other.ID == f.ID {
			continue
		}
		if strings.EqualFold(other.Name, f.Name) {
			return fmt.Errorf("%w: %q", types.ErrDuplicateFactName, f.Name)
		}
	}
	if !rules.ValueMatchesType(f.DefaultValue, f.Type) {
		return fmt.Errorf("%w: %v is not a %s", types.ErrInvalidDefaultValue, f.DefaultValue, f.Type)
	}
	return nil
}

// RuleReport lists the problems of one rule.
type RuleReport struct {
	RuleID   types.RuleID `json:"ruleId"`
	RuleName string       `json:"ruleName"`
	Errors   []string     `json:"errors"`
}

// ValidateRuleSet validates every rule, enabled or not, against facts and
// returns reports for the rules that have problems, in rule-set order.
func ValidateRuleSet(rules []types.Rule, facts []types.FactDefinition) []RuleReport {
	var reports []RuleReport
	for _, r := range rules {
		msgs := flatten(ValidateRuleFields(r))
		for _, err := range ValidateRuleConditions(r, facts) {
			msgs = append(msgs, err.Error())
		}
		if len(msgs) > 0 {
			reports = append(reports, RuleReport{RuleID: r.ID, RuleName: r.Name, Errors: msgs})
		}
	}
	return reports
}

func flatten(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
