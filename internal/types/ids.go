package types

import (
	"github.com/google/uuid"
)

// NewFactID generates a UUIDv7 fact identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewFactID() FactID {
	return FactID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// NewNodeID generates a UUIDv7 identifier for a condition or group.
// Time-ordered IDs keep freshly added siblings sorted by creation.
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// ParseRuleID validates and converts a string to RuleID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRuleID(s string) (RuleID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseFactID validates and converts a string to FactID.
func ParseFactID(s string) (FactID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return FactID(s), nil
}
