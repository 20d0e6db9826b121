// Package types provides domain models shared across FactKeeper components.
//
// Zero-dependency design: everything except ids.go uses only the standard
// library so the data model can be embedded by editors and transports without
// pulling in storage or transport deps. ID utilities in ids.go import uuid.
//
// The persisted layout is a single Document holding two flat collections,
// facts and rules. There is no schema version field.
package types

// FactID represents a UUIDv7 fact identifier.
// String alias enables type safety while maintaining JSON string serialization.
type FactID string

// RuleID represents a UUIDv7 rule identifier.
type RuleID string

// NodeID identifies a single Condition or ConditionGroup inside a rule tree.
// Node identities are list keys for editors and targets of in-place edits, so
// two nodes anywhere in one rule set must never share an ID.
type NodeID string

// FactType is the declared value type of a fact.
type FactType string

const (
	FactString  FactType = "string"
	FactNumber  FactType = "number"
	FactBoolean FactType = "boolean"
	FactArray   FactType = "array"
	FactObject  FactType = "object"
)

// FactTypes lists every declared fact type in display order.
var FactTypes = []FactType{FactString, FactNumber, FactBoolean, FactArray, FactObject}

// Valid reports whether t is one of the five declared fact types.
func (t FactType) Valid() bool {
	switch t {
	case FactString, FactNumber, FactBoolean, FactArray, FactObject:
		return true
	default:
		return false
	}
}

// Structured reports whether values of this type can be navigated with a path.
func (t FactType) Structured() bool {
	return t == FactArray || t == FactObject
}

// FactDefinition declares a named, typed input available to rule conditions.
// Conditions reference facts by name only; the ID is stable across edits.
type FactDefinition struct {
	ID           FactID   `json:"id"`
	Name         string   `json:"name"`
	Type         FactType `json:"type"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// Document is the persisted and exported layout: {facts, rules}.
type Document struct {
	Facts []FactDefinition `json:"facts"`
	Rules []Rule           `json:"rules"`
}

// ZeroValue returns the zero value for a fact type: "", 0, false, [] or {}.
// Unknown types fall back to the string zero value.
func ZeroValue(t FactType) any {
	switch t {
	case FactNumber:
		return float64(0)
	case FactBoolean:
		return false
	case FactArray:
		return []any{}
	case FactObject:
		return map[string]any{}
	default:
		return ""
	}
}
