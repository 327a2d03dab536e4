package query

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-matchsql/core/match"
	"github.com/asaidimu/go-matchsql/core/schema"
)

// LogicalOperator combines the members of a FilterGroup.
type LogicalOperator string

// Logical operators for combining filter conditions.
const (
	LogicalOperatorAnd LogicalOperator = "and"
	LogicalOperatorOr  LogicalOperator = "or"
	LogicalOperatorNot LogicalOperator = "not"
)

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq          ComparisonOperator = "eq"
	ComparisonOperatorNeq         ComparisonOperator = "neq"
	ComparisonOperatorLt          ComparisonOperator = "lt"
	ComparisonOperatorLte         ComparisonOperator = "lte"
	ComparisonOperatorGt          ComparisonOperator = "gt"
	ComparisonOperatorGte         ComparisonOperator = "gte"
	ComparisonOperatorBetween     ComparisonOperator = "between"
	ComparisonOperatorIn          ComparisonOperator = "in"
	ComparisonOperatorNin         ComparisonOperator = "nin"
	ComparisonOperatorContains    ComparisonOperator = "contains"
	ComparisonOperatorNotContains ComparisonOperator = "ncontains"
	ComparisonOperatorExists      ComparisonOperator = "exists"
	ComparisonOperatorNotExists   ComparisonOperator = "nexists"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single condition on one field.
type FilterCondition struct {
	Field    string             `json:"field"`
	Operator ComparisonOperator `json:"operator"`
	Value    FilterValue        `json:"value,omitempty"`
}

// FilterGroup combines multiple filters using a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator `json:"operator"`
	Conditions []QueryFilter   `json:"conditions"`
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:"condition,omitempty"`
	Group     *FilterGroup     `json:"group,omitempty"`
}

// standardComparisonOperators is a set of all the supported comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:          {},
	ComparisonOperatorNeq:         {},
	ComparisonOperatorLt:          {},
	ComparisonOperatorLte:         {},
	ComparisonOperatorGt:          {},
	ComparisonOperatorGte:         {},
	ComparisonOperatorBetween:     {},
	ComparisonOperatorIn:          {},
	ComparisonOperatorNin:         {},
	ComparisonOperatorContains:    {},
	ComparisonOperatorNotContains: {},
	ComparisonOperatorExists:      {},
	ComparisonOperatorNotExists:   {},
}

// IsStandard checks if a comparison operator is one of the supported operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// GetStandardComparisonOperators returns a map of all supported comparison operators.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return standardComparisonOperators
}

// ParseFilter decodes a JSON filter document.
func ParseFilter(data []byte) (*QueryFilter, error) {
	var f QueryFilter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error unmarshaling filter: %w", err)
	}
	return &f, nil
}

// Conditions compiles the filter into conditions joined with AND. The members
// of an AND group may name different fields; every OR or NOT group must
// concern a single field, since a Match applies to one column.
func (f *QueryFilter) Conditions() ([]Condition, error) {
	if f.Group != nil && f.Group.Operator == LogicalOperatorAnd {
		var out []Condition
		for i := range f.Group.Conditions {
			conds, err := f.Group.Conditions[i].Conditions()
			if err != nil {
				return nil, err
			}
			out = append(out, conds...)
		}
		return out, nil
	}

	field, m, err := f.compile()
	if err != nil {
		return nil, err
	}
	return []Condition{{Column: field, Match: m}}, nil
}

func (f *QueryFilter) compile() (string, match.Match, error) {
	switch {
	case f.Condition != nil:
		m, err := f.Condition.compile()
		return f.Condition.Field, m, err
	case f.Group != nil:
		return f.Group.compile()
	default:
		return "", nil, fmt.Errorf("filter has neither a condition nor a group")
	}
}

func (g *FilterGroup) compile() (string, match.Match, error) {
	if len(g.Conditions) == 0 {
		return "", nil, fmt.Errorf("%s group has no conditions", g.Operator)
	}

	field := ""
	children := make([]match.Match, 0, len(g.Conditions))
	for i := range g.Conditions {
		childField, m, err := g.Conditions[i].compile()
		if err != nil {
			return "", nil, err
		}
		if field != "" && childField != field {
			return "", nil, fmt.Errorf("%s group spans fields '%s' and '%s'", g.Operator, field, childField)
		}
		field = childField
		children = append(children, m)
	}

	switch g.Operator {
	case LogicalOperatorAnd:
		return field, match.AllOf(children...), nil
	case LogicalOperatorOr:
		return field, match.AnyOf(children...), nil
	case LogicalOperatorNot:
		if len(children) != 1 {
			return "", nil, fmt.Errorf("not group takes one condition, got %d", len(children))
		}
		return field, match.Negate(children[0]), nil
	default:
		return "", nil, fmt.Errorf("unsupported logical operator: %s", g.Operator)
	}
}

func (c *FilterCondition) compile() (match.Match, error) {
	if c.Field == "" {
		return nil, fmt.Errorf("filter condition has no field")
	}
	if !schema.ValidIdentifier(c.Field) {
		return nil, fmt.Errorf("filter condition has an invalid field %q", c.Field)
	}

	switch c.Operator {
	case ComparisonOperatorEq:
		if c.Value == nil {
			return match.IsNull{}, nil
		}
		return match.From(c.Value), nil
	case ComparisonOperatorNeq:
		if c.Value == nil {
			return match.Negate(match.IsNull{}), nil
		}
		return match.NotEqualTo{Value: c.Value}, nil
	case ComparisonOperatorLt:
		return match.LessThan{Value: c.Value}, nil
	case ComparisonOperatorLte:
		return match.AtMost{Value: c.Value}, nil
	case ComparisonOperatorGt:
		return match.GreaterThan{Value: c.Value}, nil
	case ComparisonOperatorGte:
		return match.AtLeast{Value: c.Value}, nil
	case ComparisonOperatorBetween:
		bounds, err := c.values()
		if err != nil {
			return nil, err
		}
		if len(bounds) != 2 {
			return nil, fmt.Errorf("between on '%s' takes two values, got %d", c.Field, len(bounds))
		}
		return match.Range(bounds[0], bounds[1]), nil
	case ComparisonOperatorIn, ComparisonOperatorNin:
		values, err := c.values()
		if err != nil {
			return nil, err
		}
		if c.Operator == ComparisonOperatorNin {
			return match.Negate(match.OneOf(values...)), nil
		}
		return match.OneOf(values...), nil
	case ComparisonOperatorContains, ComparisonOperatorNotContains:
		s, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s on '%s' takes a string, got %T", c.Operator, c.Field, c.Value)
		}
		if c.Operator == ComparisonOperatorNotContains {
			return match.Negate(match.Contains{Substring: s}), nil
		}
		return match.Contains{Substring: s}, nil
	case ComparisonOperatorExists:
		return match.Negate(match.IsNull{}), nil
	case ComparisonOperatorNotExists:
		return match.IsNull{}, nil
	default:
		return nil, fmt.Errorf("unsupported comparison operator: %s", c.Operator)
	}
}

// values returns the condition's value as a list.
func (c *FilterCondition) values() ([]match.Value, error) {
	rv := reflect.ValueOf(c.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%s on '%s' takes a list, got %T", c.Operator, c.Field, c.Value)
	}
	values := make([]match.Value, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}
