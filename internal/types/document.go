package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseDocument decodes an exported document. Both "facts" and "rules" must
// be present and be JSON arrays; anything else is ErrInvalidFormat. Nothing
// is returned on failure, so callers never apply a partial import.
func ParseDocument(data []byte) (*Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, field := range []string{"facts", "rules"} {
		raw, ok := probe[field]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidFormat, field)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
			return nil, fmt.Errorf("%w: %q is not an array", ErrInvalidFormat, field)
		}
	}

	doc := &Document{}
	if err := json.Unmarshal(probe["facts"], &doc.Facts); err != nil {
		return nil, fmt.Errorf("%w: facts: %v", ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(probe["rules"], &doc.Rules); err != nil {
		return nil, fmt.Errorf("%w: rules: %v", ErrInvalidFormat, err)
	}
	return doc, nil
}

// MarshalDocument encodes doc as pretty JSON with two-space indentation.
// Nil collections are written as empty arrays.
func MarshalDocument(doc Document) ([]byte, error) {
	if doc.Facts == nil {
		doc.Facts = []FactDefinition{}
	}
	if doc.Rules == nil {
		doc.Rules = []Rule{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
