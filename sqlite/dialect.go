// Package sqlite provides the SQLite dialect, connection helpers and the
// mapping from schema definitions to SQLite DDL.
package sqlite

import (
	"errors"
	"strconv"

	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/mattn/go-sqlite3"
)

// Dialect implements query.Dialect for SQLite. Placeholders are numbered
// `?n` parameters and derived values tables are written as a leading WITH
// clause, since SQLite does not accept a column list on a subquery alias.
type Dialect struct{}

var _ query.Dialect = Dialect{}

// NewDialect returns the SQLite dialect.
func NewDialect() Dialect {
	return Dialect{}
}

func (Dialect) Name() string {
	return "sqlite"
}

func (Dialect) Placeholder(n int) string {
	return "?" + strconv.Itoa(n)
}

// Cast returns "". SQLite columns have affinity, values need no cast.
func (Dialect) Cast(string) string {
	return ""
}

func (Dialect) DerivedTableStyle() query.DerivedTableStyle {
	return query.DerivedCommonTable
}

// ColumnType maps a schema.FieldType to its SQLite column type.
func (Dialect) ColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeTimestamp:
		return "TEXT"
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		return "REAL"
	case schema.FieldTypeInteger, schema.FieldTypeBoolean, schema.FieldTypeInterval:
		return "INTEGER"
	case schema.FieldTypeObject:
		return "TEXT"
	default:
		return "BLOB"
	}
}

// ErrorCode returns the extended result code of a SQLite error, e.g. "787"
// for a foreign key violation.
func (Dialect) ErrorCode(err error) string {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return strconv.Itoa(int(sqliteErr.ExtendedCode))
	}
	return ""
}
