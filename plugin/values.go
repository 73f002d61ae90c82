package plugin

import (
	"fmt"
	"math"
	"strconv"
)

// Bool coerces an evaluated value at the boolean boundary. Numbers are true
// when non-zero, strings and lists when non-empty; nil is false.
func Bool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// Int coerces a value for integer arithmetic. Floats truncate toward zero;
// unparsable strings and nil are 0.
func Int(v any) int {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int(x)
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return int(f)
		}
		return 0
	default:
		return 0
	}
}

// Number returns v as a float64 when it is numeric or boolean.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// String renders v for name arguments and string comparisons.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Strings renders args as names, flattening list arguments one level so
// has_all(["Bow", "Hammer"]) reads like has_all("Bow", "Hammer").
func Strings(args []any) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if list, ok := a.([]any); ok {
			for _, e := range list {
				out = append(out, String(e))
			}
			continue
		}
		out = append(out, String(a))
	}
	return out
}

// Equal compares two values numerically when both are numbers, else as strings.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	an, aok := Number(a)
	bn, bok := Number(b)
	if aok && bok {
		return an == bn
	}
	return String(a) == String(b)
}

// Arg returns args[i], or nil when absent.
func Arg(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}
