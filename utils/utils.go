// Package utils converts Go structs into the column-ordered values written
// into statements.
package utils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// StructToMap converts a struct into a map keyed by column name.
//
// The column name of a field is taken from its `db` tag, then its `json` tag,
// then the field name. Fields tagged "-" and unexported fields are skipped.
// Nested structs, maps and slices are encoded as json.RawMessage so they can
// be written into JSON columns; time.Time and driver.Valuer values are kept
// as they are.
//
// The input record must be a struct or a pointer to a struct.
//
// Example:
//
//	type Job struct {
//		ID   int64   `db:"id"`
//		Name string  `db:"name"`
//		Rate float64 `json:"rate"`
//	}
//	m, err := StructToMap(Job{ID: 1, Name: "Design", Rate: 80})
//	// m will be map[string]any{"id": int64(1), "name": "Design", "rate": 80.0}
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)

	// Handle nil interface input directly (e.g., if `record` is `nil any`)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	typ := val.Type()
	resultMap := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := columnName(field)
		if name == "" {
			continue
		}

		value, err := columnValue(val.Field(i))
		if err != nil {
			return nil, fmt.Errorf("StructToMap: field '%s': %w", field.Name, err)
		}
		resultMap[name] = value
	}
	return resultMap, nil
}

// RowValues returns the values of record for columns, in order. Every column
// must be present in record.
func RowValues[T any](record T, columns []string) ([]any, error) {
	m, err := StructToMap(record)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	for i, column := range columns {
		value, ok := m[column]
		if !ok {
			return nil, fmt.Errorf("record %T has no column '%s'", record, column)
		}
		values[i] = value
	}
	return values, nil
}

// Rows converts records into a row function for query.Builder.PushValues,
// failing early if any record cannot supply columns.
func Rows[T any](records []T, columns []string) (func(i int) []any, error) {
	rows := make([][]any, len(records))
	for i, record := range records {
		values, err := RowValues(record, columns)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = values
	}
	return func(i int) []any { return rows[i] }, nil
}

func columnName(field reflect.StructField) string {
	for _, key := range []string{"db", "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

func columnValue(v reflect.Value) (any, error) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Implements(valuerType) {
			return v.Interface(), nil
		}
		v = v.Elem()
	}

	if v.Type() == timeType || v.Type().Implements(valuerType) {
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		if (v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
			return nil, nil
		}
		raw, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		return json.RawMessage(raw), nil
	default:
		return v.Interface(), nil
	}
}
