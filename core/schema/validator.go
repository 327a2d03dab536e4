package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Issue describes one way a row fails to conform to its schema.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Validator checks rows against a schema before they are written into a
// derived values table. Rows are given as values in column order, the order
// populate functions write them in.
type Validator struct {
	schema *SchemaDefinition
	issues []Issue
}

// NewValidator creates a new Validator for schema. A Validator is not safe for
// concurrent use.
func NewValidator(schema *SchemaDefinition) *Validator {
	return &Validator{schema: schema}
}

// ValidateRow checks that values holds one value per field of the schema, in
// field order, and that each value fits its field. It returns whether the row
// is valid and every issue found.
func (v *Validator) ValidateRow(values []any) (bool, []Issue) {
	v.issues = make([]Issue, 0)

	if len(values) != len(v.schema.Fields) {
		v.addIssue("COLUMN_COUNT_MISMATCH",
			fmt.Sprintf("Expected %d values, got %d", len(v.schema.Fields), len(values)), "")
		return false, v.issues
	}

	for i, field := range v.schema.Fields {
		v.validateFieldType(values[i], field)
	}
	return len(v.issues) == 0, v.issues
}

// ValidateRows validates every row and returns the first error, naming the
// row and the field at fault.
func (v *Validator) ValidateRows(rows int, row func(i int) []any) error {
	for i := 0; i < rows; i++ {
		if ok, issues := v.ValidateRow(row(i)); !ok {
			return fmt.Errorf("row %d of %s: %s: %s (%s)", i, v.schema.Name, issues[0].Path, issues[0].Message, issues[0].Code)
		}
	}
	return nil
}

func (v *Validator) validateFieldType(value any, field *FieldDefinition) bool {
	if value == nil {
		if field.Required != nil && *field.Required {
			v.addIssue("NULL_VALUE", "Field cannot be null", field.Name)
			return false
		}
		return true
	}

	switch field.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected string, got %T", value), field.Name)
			return false
		}
	case FieldTypeNumber, FieldTypeDecimal:
		if !v.isNumericType(value) {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected number, got %T", value), field.Name)
			return false
		}
	case FieldTypeInteger:
		if !v.isIntegerType(value) {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected integer, got %T", value), field.Name)
			return false
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected boolean, got %T", value), field.Name)
			return false
		}
	case FieldTypeTimestamp:
		if _, ok := value.(time.Time); !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected timestamp, got %T", value), field.Name)
			return false
		}
	case FieldTypeInterval:
		if _, ok := value.(time.Duration); !ok && !v.isIntegerType(value) {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected interval, got %T", value), field.Name)
			return false
		}
	case FieldTypeObject:
		if !v.isObjectType(value) {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected object, got %T", value), field.Name)
			return false
		}
	}
	return true
}

// isNumericType checks if a value is a numeric type.
func (v *Validator) isNumericType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// isIntegerType checks if a value is an integer type.
func (v *Validator) isIntegerType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// isObjectType accepts maps with string keys and already encoded JSON.
func (v *Validator) isObjectType(value any) bool {
	switch value.(type) {
	case map[string]any, json.RawMessage, []byte:
		return true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

func (v *Validator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:    code,
		Message: message,
		Path:    path,
	})
}
