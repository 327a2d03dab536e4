// Package schema describes the persisted shape of a table: its name, the alias
// used when the table appears in a statement, the ordered list of columns and
// the columns that identify a row. Descriptors are static, compile-time-known
// values and are never derived from untrusted input.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Id is the identity value of a persisted row.
type Id = int64

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString    FieldType = "string"    // Text data
	FieldTypeNumber    FieldType = "number"    // Floating point data
	FieldTypeInteger   FieldType = "integer"   // Whole numbers
	FieldTypeDecimal   FieldType = "decimal"   // Exact numeric data, e.g. money
	FieldTypeBoolean   FieldType = "boolean"   // True/false values
	FieldTypeTimestamp FieldType = "timestamp" // Points in time
	FieldTypeInterval  FieldType = "interval"  // Durations
	FieldTypeObject    FieldType = "object"    // Structured data stored as JSON
)

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// FieldDefinition defines a persisted column.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates if the column is NOT NULL.
	Required *bool `json:"required,omitempty"`
	// Default provides a default value for the column.
	Default any `json:"default,omitempty"`
	// Unique indicates if the column must have unique values.
	Unique *bool `json:"unique,omitempty"`
	// Description provides a brief explanation of the column.
	Description *string `json:"description,omitempty"`
}

// IndexDefinition defines an index for optimizing queries or enforcing uniqueness.
type IndexDefinition struct {
	Fields []string  `json:"fields"`
	Type   IndexType `json:"type"`
	Unique *bool     `json:"unique,omitempty"`
	Name   string    `json:"name"`
}

// SchemaDefinition is a document-style description of a table. Fields are kept
// in a slice because their order is the order columns appear in generated
// statements.
type SchemaDefinition struct {
	Name        string             `json:"name"`
	Alias       string             `json:"alias,omitempty"`
	Version     string             `json:"version,omitempty"`
	Description *string            `json:"description,omitempty"`
	Fields      []*FieldDefinition `json:"fields"`
	Indexes     []IndexDefinition  `json:"indexes,omitempty"`
}

var _ ColumnSet = (*SchemaDefinition)(nil)
var _ Typed = (*SchemaDefinition)(nil)

// ParseSchemaDefinition decodes and validates a JSON schema document.
func ParseSchemaDefinition(data []byte) (*SchemaDefinition, error) {
	var sc SchemaDefinition
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("error unmarshaling schema definition: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// TableName returns the name of the table.
func (s *SchemaDefinition) TableName() string {
	return s.Name
}

// DefaultAlias returns the configured alias, or the first letter of the table
// name when none is set.
func (s *SchemaDefinition) DefaultAlias() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.Name == "" {
		return ""
	}
	return s.Name[:1]
}

// Columns returns the field names in declaration order.
func (s *SchemaDefinition) Columns() []string {
	columns := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		columns = append(columns, field.Name)
	}
	return columns
}

// Keys returns the fields of the primary index. Tables without one are keyed
// by "id".
func (s *SchemaDefinition) Keys() []string {
	for _, index := range s.Indexes {
		if index.Type == IndexTypePrimary && len(index.Fields) > 0 {
			return index.Fields
		}
	}
	return []string{"id"}
}

// ColumnType reports the declared type of a column.
func (s *SchemaDefinition) ColumnType(name string) (FieldType, bool) {
	field := s.FindField(name)
	if field == nil {
		return "", false
	}
	return field.Type, true
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be written into a statement
// without quoting.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Validate checks that the definition can be used as a ColumnSet.
func (s *SchemaDefinition) Validate() error {
	if !ValidIdentifier(s.Name) {
		return fmt.Errorf("schema must define a valid table name, got %q", s.Name)
	}
	if !ValidIdentifier(s.DefaultAlias()) {
		return fmt.Errorf("schema %s has an invalid alias %q", s.Name, s.DefaultAlias())
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s defines no fields", s.Name)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, field := range s.Fields {
		if field == nil {
			return fmt.Errorf("schema %s contains a nil field", s.Name)
		}
		if !ValidIdentifier(field.Name) {
			return fmt.Errorf("schema %s has an invalid field name %q", s.Name, field.Name)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("schema %s declares field '%s' more than once", s.Name, field.Name)
		}
		seen[field.Name] = struct{}{}
	}

	for _, key := range s.Keys() {
		if _, ok := seen[key]; !ok {
			return fmt.Errorf("key field '%s' not found in schema %s", key, s.Name)
		}
	}
	return nil
}
