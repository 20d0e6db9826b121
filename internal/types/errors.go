package types

import "errors"

// Validation errors. Surfaced synchronously to the editor; they block the
// offending mutation and never cross the engine boundary as panics.
var (
	// ErrInvalidFactName indicates a fact name not matching [A-Za-z][A-Za-z0-9_]*.
	ErrInvalidFactName = errors.New("fact name must start with a letter and contain only letters, numbers, and underscores")

	// ErrDuplicateFactName indicates a case-insensitive name collision.
	ErrDuplicateFactName = errors.New("a fact with this name already exists")

	// ErrInvalidFactType indicates a type outside string/number/boolean/array/object.
	ErrInvalidFactType = errors.New("invalid fact type")

	// ErrInvalidDefaultValue indicates a default value inconsistent with the fact type.
	ErrInvalidDefaultValue = errors.New("default value does not match fact type")

	// ErrFactInUse indicates deletion of a fact still referenced by a rule condition.
	ErrFactInUse = errors.New("cannot delete fact that is used in rules")

	// ErrFactNotFound indicates an unknown fact ID.
	ErrFactNotFound = errors.New("fact not found")

	// ErrRuleNotFound indicates an unknown rule ID.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrEmptyRuleName indicates a rule without a name.
	ErrEmptyRuleName = errors.New("rule name is required")

	// ErrEmptyEventType indicates a rule event without a type.
	ErrEmptyEventType = errors.New("event type is required")

	// ErrNegativePriority indicates a rule priority below zero.
	ErrNegativePriority = errors.New("priority must be a non-negative integer")

	// ErrUnknownFact indicates a condition referencing a fact absent from the registry.
	ErrUnknownFact = errors.New("condition references unknown fact")
)

// Evaluation errors. Recovered per rule by the engine: the rule is marked
// failed and the run continues.
var (
	// ErrUnknownOperator indicates an operator outside the catalog.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnknownNodeKind indicates a tree node that is neither a condition nor a group.
	ErrUnknownNodeKind = errors.New("unknown condition node kind")

	// ErrMissingConditions indicates a rule without a root condition group.
	ErrMissingConditions = errors.New("rule has no condition group")

	// ErrInvalidPath indicates a path string that cannot be parsed.
	ErrInvalidPath = errors.New("invalid fact path")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")
)

// Import and storage errors.
var (
	// ErrInvalidFormat indicates an import document whose facts or rules are not arrays.
	ErrInvalidFormat = errors.New("invalid file format")

	// ErrNoDocument indicates the durable store holds no document yet.
	ErrNoDocument = errors.New("no stored document")
)
