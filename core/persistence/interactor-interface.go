package persistence

import (
	"context"
	"database/sql"
)

// Executor runs a parameterized statement. *sql.DB, *sql.Conn and *sql.Tx all
// satisfy it, so the same operations can run on a pool, a pinned connection or
// inside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Transaction is an Executor whose lifetime is controlled by the caller.
// Operations never commit or roll back a Transaction themselves.
type Transaction interface {
	Executor
	Commit() error
	Rollback() error
}

var (
	_ Executor    = (*sql.DB)(nil)
	_ Executor    = (*sql.Conn)(nil)
	_ Transaction = (*sql.Tx)(nil)
)

// Options provides configuration for a Mutator.
type Options struct {
	// TablePrefix is prepended to every table name written into a statement.
	TablePrefix string

	// SchemaName qualifies every table name, e.g. "billing" writes
	// billing.jobs. Leave empty for databases without schemas (SQLite).
	SchemaName string

	// EmitEvents publishes a MutationEvent before and after every statement
	// executed by the Mutator.
	EmitEvents bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		EmitEvents: true,
	}
}

// qualify applies the table prefix and schema name to name.
func (o *Options) qualify(name string) string {
	name = o.TablePrefix + name
	if o.SchemaName != "" {
		return o.SchemaName + "." + name
	}
	return name
}
