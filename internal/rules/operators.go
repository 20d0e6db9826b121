// internal/rules/operators.go
package rules

import (
	"math"
	"reflect"

	"github.com/solatis/factkeeper/internal/types"
)

/*
 * Operator catalog and comparison logic.
 *
 * The catalog is a fixed table mapping each operator to the fact types it is
 * legal for. Compare is the pure comparison function behind every operator.
 *
 * Operators:
 *   - equal/notEqual: structural equality (string, number, boolean, object)
 *   - lessThan/lessThanInclusive/greaterThan/greaterThanInclusive: numeric only
 *   - in/notIn: membership of the fact value in the condition array
 *   - contains/doesNotContain: membership of the condition value in the fact array
 *
 * Totality: Compare never panics. Incompatible pairs (non-numeric ordering,
 * non-array membership target, Undefined on either side) evaluate to false.
 * Numbers compare by value across Go numeric kinds for JSON compatibility.
 */

// OperatorDefinition describes one catalog entry.
type OperatorDefinition struct {
	Value          types.Operator   `json:"value"`
	Label          string           `json:"label"`
	Description    string           `json:"description"`
	SupportedTypes []types.FactType `json:"supportedTypes"`
}

// Supports reports whether the operator is legal for facts of type t.
func (d OperatorDefinition) Supports(t types.FactType) bool {
	for _, st := range d.SupportedTypes {
		if st == t {
			return true
		}
	}
	return false
}

var (
	equalityTypes   = []types.FactType{types.FactString, types.FactNumber, types.FactBoolean, types.FactObject}
	numericTypes    = []types.FactType{types.FactNumber}
	membershipTypes = []types.FactType{types.FactString, types.FactNumber}
	containerTypes  = []types.FactType{types.FactArray}
)

// Operators is the fixed operator table in display order.
var Operators = []OperatorDefinition{
	{Value: types.OpEqual, Label: "Equal", Description: "Checks if values are equal", SupportedTypes: equalityTypes},
	{Value: types.OpNotEqual, Label: "Not Equal", Description: "Checks if values are not equal", SupportedTypes: equalityTypes},
	{Value: types.OpLessThan, Label: "Less Than", Description: "Checks if value is less than", SupportedTypes: numericTypes},
	{Value: types.OpLessThanInclusive, Label: "Less Than or Equal", Description: "Checks if value is less than or equal", SupportedTypes: numericTypes},
	{Value: types.OpGreaterThan, Label: "Greater Than", Description: "Checks if value is greater than", SupportedTypes: numericTypes},
	{Value: types.OpGreaterThanInclusive, Label: "Greater Than or Equal", Description: "Checks if value is greater than or equal", SupportedTypes: numericTypes},
	{Value: types.OpIn, Label: "In", Description: "Checks if value is in array", SupportedTypes: membershipTypes},
	{Value: types.OpNotIn, Label: "Not In", Description: "Checks if value is not in array", SupportedTypes: membershipTypes},
	{Value: types.OpContains, Label: "Contains", Description: "Checks if array contains value", SupportedTypes: containerTypes},
	{Value: types.OpDoesNotContain, Label: "Does Not Contain", Description: "Checks if array does not contain value", SupportedTypes: containerTypes},
}

// OperatorsFor returns the catalog entries legal for fact type t, in table order.
func OperatorsFor(t types.FactType) []OperatorDefinition {
	out := make([]OperatorDefinition, 0, len(Operators))
	for _, def := range Operators {
		if def.Supports(t) {
			out = append(out, def)
		}
	}
	return out
}

// LookupOperator returns the catalog entry for op.
func LookupOperator(op types.Operator) (OperatorDefinition, bool) {
	for _, def := range Operators {
		if def.Value == op {
			return def, true
		}
	}
	return OperatorDefinition{}, false
}

// OperatorLabel returns the display label, or the raw operator name if unknown.
func OperatorLabel(op types.Operator) string {
	if def, ok := LookupOperator(op); ok {
		return def.Label
	}
	return string(op)
}

// Compare applies the operator to factValue and conditionValue.
func Compare(op types.Operator, factValue, conditionValue any) bool {
	if IsUndefined(factValue) || IsUndefined(conditionValue) {
		return false
	}

	switch op {
	case types.OpEqual:
		return compareEqual(factValue, conditionValue)
	case types.OpNotEqual:
		return !compareEqual(factValue, conditionValue)
	case types.OpLessThan:
		c, ok := compareNumeric(factValue, conditionValue)
		return ok && c < 0
	case types.OpLessThanInclusive:
		c, ok := compareNumeric(factValue, conditionValue)
		return ok && c <= 0
	case types.OpGreaterThan:
		c, ok := compareNumeric(factValue, conditionValue)
		return ok && c > 0
	case types.OpGreaterThanInclusive:
		c, ok := compareNumeric(factValue, conditionValue)
		return ok && c >= 0
	case types.OpIn:
		set, ok := asSlice(conditionValue)
		return ok && member(set, factValue)
	case types.OpNotIn:
		set, ok := asSlice(conditionValue)
		return ok && !member(set, factValue)
	case types.OpContains:
		arr, ok := asSlice(factValue)
		return ok && member(arr, conditionValue)
	case types.OpDoesNotContain:
		arr, ok := asSlice(factValue)
		return ok && !member(arr, conditionValue)
	default:
		return false
	}
}

// compareEqual performs structural equality over normalized JSON values.
func compareEqual(a, b any) bool {
	return jsonEqual(Normalize(a), Normalize(b))
}

// jsonEqual compares two normalized values recursively.
func jsonEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !jsonEqual(v, other) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// compareNumeric performs three-way numeric comparison (-1/0/1).
// The flag is false when either side cannot be coerced to a number.
func compareNumeric(a, b any) (int, bool) {
	na, oka := toNumber(a)
	nb, okb := toNumber(b)
	if !oka || !okb || math.IsNaN(na) || math.IsNaN(nb) {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// toNumber coerces a value with the strict numeric rules of coerceNumeric.
func toNumber(v any) (float64, bool) {
	res, err := coerceNumeric(Normalize(v))
	if err != nil {
		return 0, false
	}
	f, ok := res.Value.(float64)
	return f, ok
}

// asSlice returns the normalized elements of an array value.
func asSlice(v any) ([]any, bool) {
	arr, ok := Normalize(v).([]any)
	return arr, ok
}

// member checks if value exists in set using equality semantics.
func member(set []any, value any) bool {
	for _, elem := range set {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}
