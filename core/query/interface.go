// Package query assembles parameterized SQL statements. A Builder accumulates
// statement text together with its bound parameters; the Dialect decides how
// placeholders, casts and derived tables are spelled for a given database.
package query

import (
	"github.com/asaidimu/go-matchsql/core/schema"
)

// DerivedTableStyle selects how a derived values table is attached to an
// UPDATE statement.
type DerivedTableStyle int

const (
	// DerivedFromSubquery writes `FROM (VALUES ...) AS v (columns)`.
	DerivedFromSubquery DerivedTableStyle = iota
	// DerivedCommonTable writes `WITH v (columns) AS (VALUES ...)` before the
	// UPDATE and joins it with `FROM v`.
	DerivedCommonTable
)

// Dialect captures the parts of statement generation which differ between
// databases. Implementations live in the postgres and sqlite packages.
type Dialect interface {
	// Name identifies the dialect in logs and errors.
	Name() string

	// Placeholder returns the placeholder for the n-th bound parameter,
	// counting from 1.
	Placeholder(n int) string

	// Cast returns the suffix which casts a placeholder to sqlType, or "" if
	// the dialect does not need casts.
	Cast(sqlType string) string

	// ColumnType maps a FieldType to the column type used by the dialect.
	ColumnType(fieldType schema.FieldType) string

	// DerivedTableStyle reports how UPDATE ... FROM a values table is written.
	DerivedTableStyle() DerivedTableStyle

	// ErrorCode extracts a driver-specific error code from err, or "".
	ErrorCode(err error) string
}
