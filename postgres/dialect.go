// Package postgres provides the PostgreSQL dialect and connection helpers.
// Statements use numbered `$n` placeholders and attach derived values tables
// with `FROM (VALUES ...) AS v (columns)`.
package postgres

import (
	"errors"
	"strconv"

	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect implements query.Dialect for PostgreSQL.
type Dialect struct{}

var _ query.Dialect = Dialect{}

// NewDialect returns the PostgreSQL dialect.
func NewDialect() Dialect {
	return Dialect{}
}

func (Dialect) Name() string {
	return "postgres"
}

func (Dialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (Dialect) Cast(sqlType string) string {
	return "::" + sqlType
}

func (Dialect) DerivedTableStyle() query.DerivedTableStyle {
	return query.DerivedFromSubquery
}

// ColumnType maps a schema.FieldType to its PostgreSQL column type.
func (Dialect) ColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString:
		return "text"
	case schema.FieldTypeNumber:
		return "double precision"
	case schema.FieldTypeInteger:
		return "bigint"
	case schema.FieldTypeDecimal:
		return "numeric"
	case schema.FieldTypeBoolean:
		return "boolean"
	case schema.FieldTypeTimestamp:
		return "timestamptz"
	case schema.FieldTypeInterval:
		return "interval"
	case schema.FieldTypeObject:
		return "jsonb"
	default:
		return ""
	}
}

// ErrorCode returns the SQLSTATE of a PostgreSQL error, e.g. "23503" for a
// foreign key violation.
func (Dialect) ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
