package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// truth is a three-valued SQL truth value. A comparison involving NULL is
// unknown, and a WHERE clause keeps only rows whose predicate is true.
type truth int

const (
	truthFalse truth = iota
	truthTrue
	truthUnknown
)

func truthOf(b bool) truth {
	if b {
		return truthTrue
	}
	return truthFalse
}

// Evaluate reports whether a column holding value satisfies m, following the
// semantics of the SQL m compiles to: comparisons with NULL are unknown and
// unknown rows are not matched. Contains is case-sensitive. It returns an
// error when value cannot be compared with a value of m.
func Evaluate(m Match, value any) (bool, error) {
	t, err := evaluate(m, value)
	if err != nil {
		return false, err
	}
	return t == truthTrue, nil
}

func evaluate(m Match, value any) (truth, error) {
	switch v := m.(type) {
	case AnyMatch:
		return truthTrue, nil
	case NoneMatch:
		return truthFalse, nil
	case EqualTo:
		return compareWith(value, v.Value, func(c int) bool { return c == 0 })
	case NotEqualTo:
		return compareWith(value, v.Value, func(c int) bool { return c != 0 })
	case GreaterThan:
		return compareWith(value, v.Value, func(c int) bool { return c > 0 })
	case LessThan:
		return compareWith(value, v.Value, func(c int) bool { return c < 0 })
	case AtLeast:
		return compareWith(value, v.Value, func(c int) bool { return c >= 0 })
	case AtMost:
		return compareWith(value, v.Value, func(c int) bool { return c <= 0 })
	case InRange:
		low, err := compareWith(value, v.Low, func(c int) bool { return c >= 0 })
		if err != nil {
			return truthFalse, err
		}
		high, err := compareWith(value, v.High, func(c int) bool { return c <= 0 })
		if err != nil {
			return truthFalse, err
		}
		return and(low, high), nil
	case In:
		result := truthFalse
		for _, candidate := range v.Values {
			t, err := compareWith(value, candidate, func(c int) bool { return c == 0 })
			if err != nil {
				return truthFalse, err
			}
			result = or(result, t)
		}
		return result, nil
	case Contains:
		if value == nil {
			return truthUnknown, nil
		}
		s, ok := value.(string)
		if !ok {
			return truthFalse, fmt.Errorf("cannot match substring against %T", value)
		}
		return truthOf(strings.Contains(s, v.Substring)), nil
	case IsNull:
		return truthOf(value == nil), nil
	case And:
		result := truthTrue
		for _, child := range v.Children {
			t, err := evaluate(child, value)
			if err != nil {
				return truthFalse, err
			}
			result = and(result, t)
		}
		return result, nil
	case Or:
		result := truthFalse
		for _, child := range v.Children {
			t, err := evaluate(child, value)
			if err != nil {
				return truthFalse, err
			}
			result = or(result, t)
		}
		return result, nil
	case Not:
		t, err := evaluate(v.Child, value)
		if err != nil {
			return truthFalse, err
		}
		switch t {
		case truthTrue:
			return truthFalse, nil
		case truthFalse:
			return truthTrue, nil
		default:
			return truthUnknown, nil
		}
	default:
		panic(fmt.Sprintf("match: unhandled variant %T", m))
	}
}

func and(a, b truth) truth {
	switch {
	case a == truthFalse || b == truthFalse:
		return truthFalse
	case a == truthUnknown || b == truthUnknown:
		return truthUnknown
	default:
		return truthTrue
	}
}

func or(a, b truth) truth {
	switch {
	case a == truthTrue || b == truthTrue:
		return truthTrue
	case a == truthUnknown || b == truthUnknown:
		return truthUnknown
	default:
		return truthFalse
	}
}

func compareWith(value, operand any, accept func(int) bool) (truth, error) {
	if value == nil || operand == nil {
		return truthUnknown, nil
	}
	c, err := compare(value, operand)
	if err != nil {
		return truthFalse, err
	}
	return truthOf(accept(c)), nil
}

// compare orders a and b. Numbers of any Go type compare by value; strings,
// booleans and times compare only with their own kind.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	default:
		_, bString := b.(string)
		af, aok := ToFloat64(a)
		bf, bok := ToFloat64(b)
		if aok && bok && !bString {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// ToFloat64 is a utility function that converts a value of various numeric types
// to a float64. It returns the converted float64 and a boolean indicating whether
// the conversion was successful.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
