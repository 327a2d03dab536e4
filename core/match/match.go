// Package match defines a backend-agnostic, composable description of which
// values of a column are wanted. A Match is a closed set of variants; the
// query package compiles it into a boolean SQL fragment.
package match

// Value is the value a leaf variant is compared against.
type Value = any

// Match is a filter over the values of a single column. The set of variants is
// closed: only the types in this package implement it.
type Match interface {
	isMatch()
}

// AnyMatch matches every value.
type AnyMatch struct{}

// NoneMatch matches no value.
type NoneMatch struct{}

// EqualTo matches values equal to Value.
type EqualTo struct{ Value Value }

// NotEqualTo matches values which are not equal to Value.
type NotEqualTo struct{ Value Value }

// GreaterThan matches values strictly greater than Value.
type GreaterThan struct{ Value Value }

// LessThan matches values strictly less than Value.
type LessThan struct{ Value Value }

// AtLeast matches values greater than or equal to Value.
type AtLeast struct{ Value Value }

// AtMost matches values less than or equal to Value.
type AtMost struct{ Value Value }

// InRange matches values between Low and High, inclusive.
type InRange struct {
	Low  Value
	High Value
}

// In matches values equal to any member of Values. An empty set matches nothing.
type In struct{ Values []Value }

// Contains matches text values containing Substring.
type Contains struct{ Substring string }

// IsNull matches NULL.
type IsNull struct{}

// And matches when every child matches. An empty And matches everything.
type And struct{ Children []Match }

// Or matches when any child matches. An empty Or matches nothing.
type Or struct{ Children []Match }

// Not matches when Child does not.
type Not struct{ Child Match }

func (AnyMatch) isMatch()    {}
func (NoneMatch) isMatch()   {}
func (EqualTo) isMatch()     {}
func (NotEqualTo) isMatch()  {}
func (GreaterThan) isMatch() {}
func (LessThan) isMatch()    {}
func (AtLeast) isMatch()     {}
func (AtMost) isMatch()      {}
func (InRange) isMatch()     {}
func (In) isMatch()          {}
func (Contains) isMatch()    {}
func (IsNull) isMatch()      {}
func (And) isMatch()         {}
func (Or) isMatch()          {}
func (Not) isMatch()         {}

// Any returns a Match for every value.
func Any() Match { return AnyMatch{} }

// None returns a Match for no value.
func None() Match { return NoneMatch{} }

// From returns a Match for values equal to v.
func From(v Value) Match { return EqualTo{Value: v} }

// Range returns a Match for values between low and high, inclusive.
func Range(low, high Value) Match { return InRange{Low: low, High: high} }

// OneOf returns a Match for values equal to any of values.
func OneOf(values ...Value) Match { return In{Values: values} }

// AllOf combines children with AND.
func AllOf(children ...Match) Match { return And{Children: children} }

// AnyOf combines children with OR.
func AnyOf(children ...Match) Match { return Or{Children: children} }

// Negate returns a Match for values child does not match.
func Negate(child Match) Match { return Not{Child: child} }

// FromEach returns an Or of equality matches, one per value, in order.
func FromEach[T any](values []T) Match {
	children := make([]Match, len(values))
	for i, v := range values {
		children[i] = EqualTo{Value: v}
	}
	return Or{Children: children}
}
