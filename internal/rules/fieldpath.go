// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/factkeeper/internal/types"
)

/*
 * Path parsing and resolution for structured fact values.
 *
 * A condition's path selects a nested value inside an array/object fact
 * before comparison. Accepted syntax (JSONPath subset):
 *
 *   $.user.name          dotted keys, leading "$" optional
 *   $.items[0].price     bracketed array index
 *   $['odd key'].x       bracketed quoted key
 *   $.items[*].price     wildcard (also .*)
 *
 * Wildcards use ANY semantics: the first element that resolves wins. Object
 * wildcards iterate keys in sorted order so evaluation is deterministic.
 * MaxPathDepth (16) and MaxNestedWildcards (2) are enforced at parse time.
 */

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any                 // resolved value (nil if not found)
	ResolvedPath []types.PathSegment // path with wildcards replaced by actual indices
	Found        bool                // true if path resolved to a value
}

// ParsePath parses a path string into segments. An empty path (or a bare
// "$") yields no segments, meaning the whole fact value.
func ParsePath(path string) ([]types.PathSegment, error) {
	s := strings.TrimSpace(path)
	s = strings.TrimPrefix(s, "$")

	var segments []types.PathSegment
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			i++
			if i < len(s) && s[i] == '*' {
				segments = append(segments, types.PathSegment{Wildcard: true})
				i++
				continue
			}
			key, n := readKey(s[i:])
			if n == 0 {
				return nil, fmt.Errorf("%w: empty key at offset %d in %q", types.ErrInvalidPath, i, path)
			}
			segments = append(segments, types.PathSegment{Key: key})
			i += n
		case '[':
			seg, n, err := readBracket(s[i:])
			if err != nil {
				return nil, fmt.Errorf("%w: %v in %q", types.ErrInvalidPath, err, path)
			}
			segments = append(segments, seg)
			i += n
		default:
			// Leading bare key without "$." prefix.
			if i != 0 {
				return nil, fmt.Errorf("%w: unexpected %q at offset %d in %q", types.ErrInvalidPath, s[i], i, path)
			}
			key, n := readKey(s)
			if n == 0 {
				return nil, fmt.Errorf("%w: unexpected %q in %q", types.ErrInvalidPath, s[0], path)
			}
			segments = append(segments, types.PathSegment{Key: key})
			i += n
		}
	}

	if len(segments) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	wildcardCount := 0
	for _, seg := range segments {
		if seg.Wildcard {
			wildcardCount++
		}
	}
	if wildcardCount > types.MaxNestedWildcards {
		return nil, types.ErrTooManyWildcards
	}

	return segments, nil
}

// readKey consumes an unquoted key up to the next '.' or '['.
func readKey(s string) (string, int) {
	n := 0
	for n < len(s) && s[n] != '.' && s[n] != '[' && s[n] != ']' {
		n++
	}
	return s[:n], n
}

// readBracket consumes one "[...]" segment: index, wildcard or quoted key.
func readBracket(s string) (types.PathSegment, int, error) {
	if len(s) > 1 && (s[1] == '\'' || s[1] == '"') {
		quote := s[1]
		closing := strings.IndexByte(s[2:], quote)
		if closing < 0 {
			return types.PathSegment{}, 0, fmt.Errorf("unterminated quoted key")
		}
		end := 2 + closing + 1
		if end >= len(s) || s[end] != ']' {
			return types.PathSegment{}, 0, fmt.Errorf("expected ] after quoted key")
		}
		return types.PathSegment{Key: s[2 : end-1]}, end + 1, nil
	}

	end := strings.IndexByte(s, ']')
	if end < 0 {
		return types.PathSegment{}, 0, fmt.Errorf("unterminated bracket")
	}
	inner := strings.TrimSpace(s[1:end])
	if inner == "*" {
		return types.PathSegment{Wildcard: true}, end + 1, nil
	}
	idx, err := strconv.Atoi(inner)
	if err != nil || idx < 0 {
		return types.PathSegment{}, 0, fmt.Errorf("invalid index %q", inner)
	}
	return types.PathSegment{Index: idx, IsIndex: true}, end + 1, nil
}

// Resolve traverses data following path segments.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrTooManyWildcards if path contains > MaxNestedWildcards wildcards.
// Returns ErrFieldNotFound if path does not exist in data.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return ResolveResult{}, types.ErrPathTooDeep
	}

	wildcardCount := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcardCount++
		}
	}
	if wildcardCount > types.MaxNestedWildcards {
		return ResolveResult{}, types.ErrTooManyWildcards
	}

	return resolveRecursive(path, Normalize(data), nil)
}

// resolveRecursive traverses nested structures following path segments.
// Returns first match for wildcards (ANY semantics). Accumulates resolved path
// with actual indices/keys replacing wildcards for trace diagnostics.
func resolveRecursive(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{
			Value:        current,
			ResolvedPath: resolvedSoFar,
			Found:        true,
		}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			// Sort keys for deterministic iteration order
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Key: key})
				result, err := resolveRecursive(remaining, v[key], resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if seg.IsIndex {
			// Cannot index into object with integer
			return ResolveResult{}, types.ErrFieldNotFound
		}
		val, ok := v[seg.Key]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, val, appendSegment(resolvedSoFar, seg))

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Index: i, IsIndex: true})
				result, err := resolveRecursive(remaining, elem, resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if !seg.IsIndex {
			// Cannot use string key on array
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if seg.Index < 0 || seg.Index >= len(v) {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index], appendSegment(resolvedSoFar, seg))

	default:
		// Null or scalar value but path continues
		return ResolveResult{}, types.ErrFieldNotFound
	}
}

// appendSegment copies before appending so wildcard siblings never share a
// backing array.
func appendSegment(path []types.PathSegment, seg types.PathSegment) []types.PathSegment {
	out := make([]types.PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}
