package stencil

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	integerLiteralRegex = regexp.MustCompile(`^-?[0-9]+$`)
	floatLiteralRegex   = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

// Resolve evaluates a single token against ctx.
//
// Literals are recognized first, in this order: a double-quoted string, a numeric
// literal (integer, or float64 when it contains a dot), then true/false in any case.
// Everything else is a variable reference; dotted references walk nested maps.
// The boolean result is false when the reference cannot be resolved, which is
// distinct from resolving to an empty string.
func Resolve(token string, ctx *Context) (interface{}, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}

	if value, ok := parseLiteral(token); ok {
		return value, true
	}

	return lookupPath(token, ctx)
}

// ResolveString resolves token and formats the value as text.
func ResolveString(token string, ctx *Context) (string, bool) {
	value, ok := Resolve(token, ctx)
	if !ok {
		return "", false
	}
	return FormatValue(value), true
}

// IsLiteral reports whether token is a string, numeric or boolean literal.
func IsLiteral(token string) bool {
	_, ok := parseLiteral(strings.TrimSpace(token))
	return ok
}

func parseLiteral(token string) (interface{}, bool) {
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		return token[1 : len(token)-1], true
	}

	if integerLiteralRegex.MatchString(token) {
		if n, err := strconv.Atoi(token); err == nil {
			return n, true
		}
		// Too large for int, keep it numeric.
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f, true
		}
	}

	if floatLiteralRegex.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f, true
		}
	}

	switch strings.ToLower(token) {
	case "true":
		return true, true
	case "false":
		return false, true
	}

	return nil, false
}

// lookupPath walks a dotted reference. A missing or non-map intermediate segment
// makes the whole expression unresolved.
func lookupPath(path string, ctx *Context) (interface{}, bool) {
	if ctx == nil || ctx.Data == nil {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(ctx.Data)

	for _, segment := range segments {
		if segment == "" {
			return nil, false
		}
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	if !isConforming(current) {
		return nil, false
	}
	return current, true
}

// isConforming reports whether v is one of the supported context value kinds.
func isConforming(v interface{}) bool {
	if v == nil {
		return false
	}
	if _, ok := toNumber(v); ok && !isString(v) {
		return true
	}
	switch v.(type) {
	case string, bool:
		return true
	}
	if _, ok := asList(v); ok {
		return true
	}
	_, ok := asMap(v)
	return ok
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

// asMap converts the supported map shapes to map[string]interface{}.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case TemplateData:
		return map[string]interface{}(m), true
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]int:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]float64:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]bool:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	}
}

// asList converts the supported sequence shapes to []interface{}. Other slice
// and array types are copied element by element; byte slices are not lists.
func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		return toInterfaceSlice(l), true
	case []int:
		return toInterfaceSlice(l), true
	case []int64:
		return toInterfaceSlice(l), true
	case []float64:
		return toInterfaceSlice(l), true
	case []bool:
		return toInterfaceSlice(l), true
	case []map[string]interface{}:
		return toInterfaceSlice(l), true
	case []TemplateData:
		return toInterfaceSlice(l), true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, false
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
}

func toInterfaceSlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, item := range in {
		out[i] = item
	}
	return out
}

// toNumber converts numeric values, and strings holding a number, to float64.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsTruthy reports whether a resolved value counts as true in a condition.
// Booleans are themselves, strings, lists and maps must be non-empty, numbers are
// always true.
func IsTruthy(value interface{}, found bool) bool {
	if !found || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	if list, ok := asList(value); ok {
		return len(list) > 0
	}
	if m, ok := asMap(value); ok {
		return len(m) > 0
	}
	return true
}

// valuesEqual compares two resolved values by value. Numbers compare numerically
// across int and float kinds, lists and maps compare deeply, and mixed scalar kinds
// compare by their textual form.
func valuesEqual(a, b interface{}) bool {
	if !isString(a) && !isString(b) {
		if fa, ok := toNumber(a); ok {
			if fb, ok := toNumber(b); ok {
				return fa == fb
			}
		}
	}

	_, aList := asList(a)
	_, bList := asList(b)
	_, aMap := asMap(a)
	_, bMap := asMap(b)
	if aList || bList || aMap || bMap {
		return reflect.DeepEqual(a, b)
	}

	return FormatValue(a) == FormatValue(b)
}

// FormatValue converts a value to its string representation
func FormatValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	if list, ok := asList(value); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	}

	return fmt.Sprintf("%v", value)
}
