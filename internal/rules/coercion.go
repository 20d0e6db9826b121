// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/solatis/factkeeper/internal/types"
)

/*
 * Value normalization and type coercion.
 *
 * Fact values arrive either decoded from JSON (float64, string, bool, []any,
 * map[string]any, nil) or as native Go values from library callers. Normalize
 * folds the latter into the JSON shapes so operators only ever see one
 * representation.
 *
 * Coercion per fact type:
 *   - number: strict - float64/ints and numeric strings, reject booleans
 *   - string: lenient - every scalar formats to its string form
 *   - boolean: strict - boolean only, no "true"/1 ambiguity
 *   - array/object: structural - must already be a list/map
 *
 * Null values are reported separately (IsNull) from coercion failures.
 */

// undefinedValue marks a value that does not exist, as opposed to JSON null.
type undefinedValue struct{}

// Undefined is the fact value of a leaf whose path could not be resolved.
var Undefined any = undefinedValue{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil/null
}

// Coerce attempts to convert value to the expected fact type.
// Returns CoercionResult with IsNull=true for nil input.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, factType types.FactType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}
	value = Normalize(value)

	switch factType {
	case types.FactNumber:
		return coerceNumeric(value)
	case types.FactString:
		return coerceText(value)
	case types.FactBoolean:
		return coerceBoolean(value)
	case types.FactArray:
		if arr, ok := value.([]any); ok {
			return CoercionResult{Value: arr}, nil
		}
		return CoercionResult{}, types.ErrCoercionFailed
	case types.FactObject:
		if obj, ok := value.(map[string]any); ok {
			return CoercionResult{Value: obj}, nil
		}
		return CoercionResult{}, types.ErrCoercionFailed
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceNumeric converts value to float64 for numeric comparison.
// Accepts float64, int, int64, and numeric strings. Rejects booleans and NaN.
// Whitespace-only strings return ErrCoercionFailed. The only non-finite
// spellings accepted are "Infinity", "+Infinity" and "-Infinity".
func coerceNumeric(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: v}, nil
	case int:
		return CoercionResult{Value: float64(v)}, nil
	case int64:
		return CoercionResult{Value: float64(v)}, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		if math.IsInf(f, 0) && strings.TrimLeft(v, "+-") != "Infinity" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: f}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceText converts scalars to their string representation.
// Lists and maps are rejected; their string form is not a meaningful fact value.
func coerceText(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case float64:
		return CoercionResult{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case bool:
		return CoercionResult{Value: strconv.FormatBool(v)}, nil
	case []any, map[string]any:
		return CoercionResult{}, types.ErrCoercionFailed
	default:
		return CoercionResult{Value: fmt.Sprintf("%v", v)}, nil
	}
}

// coerceBoolean validates value is boolean type.
func coerceBoolean(value any) (CoercionResult, error) {
	if v, ok := value.(bool); ok {
		return CoercionResult{Value: v}, nil
	}
	return CoercionResult{}, types.ErrCoercionFailed
}

// ValueMatchesType reports whether v is already a value of type t, without
// lenient coercion. nil matches every type (absent default).
func ValueMatchesType(v any, t types.FactType) bool {
	if v == nil {
		return true
	}
	switch Normalize(v).(type) {
	case string:
		return t == types.FactString
	case float64:
		return t == types.FactNumber
	case bool:
		return t == types.FactBoolean
	case []any:
		return t == types.FactArray
	case map[string]any:
		return t == types.FactObject
	default:
		return false
	}
}

// ParseValueForType converts raw text input (CLI flags, form fields) into a
// value of type t. Unparseable input yields the type's zero value. Numbers
// must be finite, since results are reported as JSON.
func ParseValueForType(raw string, t types.FactType) any {
	switch t {
	case types.FactNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return float64(0)
		}
		return f
	case types.FactBoolean:
		return strings.EqualFold(strings.TrimSpace(raw), "true")
	case types.FactArray, types.FactObject:
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return types.ZeroValue(t)
		}
		if !ValueMatchesType(parsed, t) {
			return types.ZeroValue(t)
		}
		return parsed
	default:
		return raw
	}
}

// maxNormalizeDepth bounds container nesting in Normalize. Deeper values,
// including self-referencing maps and slices, are returned unchanged below
// the cap.
const maxNormalizeDepth = 64

// Normalize folds native Go values into JSON-decoded shapes: numbers become
// float64, slices become []any, string-keyed maps become map[string]any.
// Structs round-trip through encoding/json. Values that cannot be encoded are
// returned unchanged, as is anything nested deeper than maxNormalizeDepth.
func Normalize(v any) any {
	return normalize(v, 0)
}

func normalize(v any, depth int) any {
	if depth > maxNormalizeDepth {
		return v
	}
	switch x := v.(type) {
	case nil, bool, string, float64, undefinedValue:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = normalize(elem, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[k] = normalize(elem, depth+1)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
