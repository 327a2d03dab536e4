package match

import "fmt"

// Constant reports whether m matches every value or no value regardless of the
// column it is applied to, and which of the two. Only structurally constant
// trees are recognized: Any, None, an empty In, an empty And or Or, and a Not
// of any of those.
func Constant(m Match) (value bool, ok bool) {
	switch v := m.(type) {
	case AnyMatch:
		return true, true
	case NoneMatch:
		return false, true
	case In:
		if len(v.Values) == 0 {
			return false, true
		}
	case And:
		if len(v.Children) == 0 {
			return true, true
		}
	case Or:
		if len(v.Children) == 0 {
			return false, true
		}
	case Not:
		if inner, ok := Constant(v.Child); ok {
			return !inner, true
		}
	}
	return false, false
}

// Values returns the values bound by m, in the order they appear in a
// pre-order, left-to-right walk of the tree.
func Values(m Match) []Value {
	var out []Value
	collect(m, &out)
	return out
}

// CountValues returns len(Values(m)).
func CountValues(m Match) int {
	return len(Values(m))
}

func collect(m Match, out *[]Value) {
	switch v := m.(type) {
	case AnyMatch, NoneMatch, IsNull:
	case EqualTo:
		*out = append(*out, v.Value)
	case NotEqualTo:
		*out = append(*out, v.Value)
	case GreaterThan:
		*out = append(*out, v.Value)
	case LessThan:
		*out = append(*out, v.Value)
	case AtLeast:
		*out = append(*out, v.Value)
	case AtMost:
		*out = append(*out, v.Value)
	case InRange:
		*out = append(*out, v.Low, v.High)
	case In:
		*out = append(*out, v.Values...)
	case Contains:
		*out = append(*out, v.Substring)
	case And:
		for _, child := range v.Children {
			collect(child, out)
		}
	case Or:
		for _, child := range v.Children {
			collect(child, out)
		}
	case Not:
		collect(v.Child, out)
	default:
		panic(fmt.Sprintf("match: unhandled variant %T", m))
	}
}
