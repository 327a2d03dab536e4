package persistence

import (
	"errors"
	"fmt"
)

// ErrNothingToSet is returned by BuildUpdate when every column of the column
// set is a key, leaving nothing for the SET clause.
var ErrNothingToSet = errors.New("column set has no non-key columns to update")

// ExecError reports a statement the database rejected. It unwraps to the
// driver's error.
type ExecError struct {
	// Op is the batch operation, "delete" or "update".
	Op string
	// Table is the table the statement targeted.
	Table string
	// SQL is the statement text.
	SQL string
	// Code is the driver's error code (a SQLSTATE for PostgreSQL, an extended
	// result code for SQLite), or "" when the driver did not provide one.
	Code string
	Err  error
}

func (e *ExecError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("failed to execute batch %s on %s (code %s): %v", e.Op, e.Table, e.Code, e.Err)
	}
	return fmt.Sprintf("failed to execute batch %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
