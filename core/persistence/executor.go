// Package persistence executes batch mutations: deleting many rows by identity
// and updating many rows from a derived values table, each as one statement on
// an Executor supplied by the caller.
package persistence

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-matchsql/core/match"
	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/core/schema"
	"go.uber.org/zap"
)

// Mutator builds and executes batch statements for one dialect. It holds no
// per-statement state and may be shared between goroutines.
type Mutator struct {
	dialect query.Dialect
	logger  *zap.Logger
	options *Options
	bus     *events.TypedEventBus[MutationEvent]
	subs    *subscriptions
}

// NewMutator creates a Mutator writing statements for dialect.
func NewMutator(dialect query.Dialect, logger *zap.Logger, options *Options) (*Mutator, error) {
	if dialect == nil {
		return nil, fmt.Errorf("dialect cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}

	m := &Mutator{
		dialect: dialect,
		logger:  logger.With(zap.String("dialect", dialect.Name())),
		options: options,
		subs:    newSubscriptions(),
	}

	if options.EmitEvents {
		bus, err := events.NewTypedEventBus[MutationEvent](events.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("could not initialize event bus: %w", err)
		}
		m.bus = bus
	}
	return m, nil
}

// Dialect returns the dialect statements are written for.
func (m *Mutator) Dialect() query.Dialect {
	return m.dialect
}

// BuildDelete builds `DELETE FROM table WHERE (id = $1) OR (id = $2) ...`, one
// equality per id in input order. It returns false, and no builder, when ids is
// empty.
func (m *Mutator) BuildDelete(table schema.Table, ids []schema.Id) (*query.Builder, bool) {
	if len(ids) == 0 {
		return nil, false
	}

	b := query.NewBuilder(m.dialect, query.SQLDelete)
	b.Push(query.SQLFrom).Push(m.options.qualify(table.TableName()))
	query.WriteWhereClause(query.BeforeWhereClause, "", "id", match.FromEach(ids), b)
	return b, true
}

// BuildUpdate builds an UPDATE of columns from the derived values table written
// by populate. populate must write the table's rows, e.g. with
// (*query.Builder).PushTypedValues, each in the order of columns.Columns().
// It returns false, and no builder, when populate writes nothing.
func (m *Mutator) BuildUpdate(columns schema.ColumnSet, populate func(*query.Builder)) (*query.Builder, bool, error) {
	if len(schema.NonKeyColumns(columns)) == 0 {
		return nil, false, fmt.Errorf("cannot update %s: %w", columns.TableName(), ErrNothingToSet)
	}

	alias := columns.DefaultAlias()
	valuesAlias := schema.ValuesAlias(alias)
	table := m.options.qualify(columns.TableName())

	var b *query.Builder
	var mark int

	switch m.dialect.DerivedTableStyle() {
	case query.DerivedCommonTable:
		b = query.NewBuilder(m.dialect, query.SQLWith)
		b.Push(valuesAlias).Push(" (").PushColumns(columns.Columns()).Push(")").Push(query.SQLAs).Push("(")
		mark = b.Len()
		populate(b)
		if b.Len() == mark {
			return nil, false, nil
		}
		b.Push(") ").Push(query.SQLUpdate).PushAs(table, alias).Push(query.SQLSet)
		b.PushSetTo(columns, valuesAlias)
		b.Push(query.SQLFrom).Push(valuesAlias)

	default:
		b = query.NewBuilder(m.dialect, query.SQLUpdate)
		b.PushAs(table, alias).Push(query.SQLSet)
		b.PushSetTo(columns, valuesAlias)
		b.Push(query.SQLFrom).Push("(")
		mark = b.Len()
		populate(b)
		if b.Len() == mark {
			return nil, false, nil
		}
		b.Push(")").Push(query.SQLAs).Push(valuesAlias).Push(" (").PushColumns(columns.Columns()).Push(")")
	}

	b.Push(query.SQLWhere)
	b.PushUpdateWhereTo(columns, alias, valuesAlias)
	return b, true, nil
}

// BuildDeleteWhere builds `DELETE FROM table WHERE <conditions>`. At least one
// condition is required so that a missing filter can never empty a table.
// Every condition must name a plain identifier and, when table is a
// schema.ColumnSet, one of its columns.
func (m *Mutator) BuildDeleteWhere(table schema.Table, conditions []query.Condition) (*query.Builder, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("DELETE without WHERE clause is not allowed for %s", table.TableName())
	}
	if err := checkColumns(table, conditions); err != nil {
		return nil, err
	}
	b := query.NewBuilder(m.dialect, query.SQLDelete)
	b.Push(query.SQLFrom).Push(m.options.qualify(table.TableName()))
	query.WriteConditions(query.BeforeWhereClause, "", conditions, b)
	return b, nil
}

// Delete removes every row of table whose id is in ids with a single
// statement. Absent ids are not an error. Nothing is executed when ids is
// empty.
func (m *Mutator) Delete(ctx context.Context, conn Executor, table schema.Table, ids []schema.Id) error {
	b, ok := m.BuildDelete(table, ids)
	if !ok {
		m.logger.Debug("Skipping batch DELETE with no ids", zap.String("table", table.TableName()))
		return nil
	}
	_, err := m.exec(ctx, conn, "delete", table.TableName(), b)
	return err
}

// DeleteWhere removes every row of table matching all conditions and reports
// how many rows were removed.
func (m *Mutator) DeleteWhere(ctx context.Context, conn Executor, table schema.Table, conditions ...query.Condition) (int64, error) {
	b, err := m.BuildDeleteWhere(table, conditions)
	if err != nil {
		return 0, err
	}
	return m.exec(ctx, conn, "delete", table.TableName(), b)
}

// Update updates the rows of columns written by populate, in one statement
// run on tx. Non-key columns are assigned from the derived table; rows are
// matched on the key columns. Nothing is executed when populate writes no
// rows. tx is never committed or rolled back here.
func (m *Mutator) Update(ctx context.Context, tx Transaction, columns schema.ColumnSet, populate func(*query.Builder)) error {
	b, ok, err := m.BuildUpdate(columns, populate)
	if err != nil {
		return err
	}
	if !ok {
		m.logger.Debug("Skipping batch UPDATE with no rows", zap.String("table", columns.TableName()))
		return nil
	}
	_, err = m.exec(ctx, tx, "update", columns.TableName(), b)
	return err
}

func (m *Mutator) exec(ctx context.Context, conn Executor, op, table string, b *query.Builder) (int64, error) {
	sqlQuery, params := b.SQL(), b.Args()
	start, success, failed := eventTypes(op)

	m.emit(createEvent(start, op, table, sqlQuery, len(params), nil, nil, time.Time{}))
	startTime := time.Now()

	m.logger.Debug("Executing SQL "+upper(op), zap.String("sql", sqlQuery), zap.Any("params", params))

	result, err := conn.ExecContext(ctx, sqlQuery, params...)
	if err != nil {
		execErr := &ExecError{
			Op:    op,
			Table: table,
			SQL:   sqlQuery,
			Code:  m.dialect.ErrorCode(err),
			Err:   err,
		}
		m.logger.Error("Failed to execute "+upper(op)+" query", zap.Error(err), zap.String("sql", sqlQuery), zap.String("code", execErr.Code))
		errStr := execErr.Error()
		m.emit(createEvent(failed, op, table, sqlQuery, len(params), nil, &errStr, startTime))
		return 0, execErr
	}

	affected, err := result.RowsAffected()
	if err != nil {
		m.logger.Warn("Rows affected unavailable", zap.String("table", table), zap.Error(err))
		affected = 0
	}

	m.logger.Debug("Executed SQL "+upper(op), zap.String("table", table), zap.Int64("rows", affected))
	m.emit(createEvent(success, op, table, sqlQuery, len(params), &affected, nil, startTime))
	return affected, nil
}

func checkColumns(table schema.Table, conditions []query.Condition) error {
	var known []string
	if cs, ok := table.(schema.ColumnSet); ok {
		known = cs.Columns()
	}
	for _, cond := range conditions {
		if !schema.ValidIdentifier(cond.Column) {
			return fmt.Errorf("invalid column %q for %s", cond.Column, table.TableName())
		}
		if known != nil && !slices.Contains(known, cond.Column) {
			return fmt.Errorf("%s has no column %q", table.TableName(), cond.Column)
		}
	}
	return nil
}

func eventTypes(op string) (start, success, failed MutationEventType) {
	if op == "update" {
		return BatchUpdateStart, BatchUpdateSuccess, BatchUpdateFailed
	}
	return BatchDeleteStart, BatchDeleteSuccess, BatchDeleteFailed
}

func upper(op string) string {
	switch op {
	case "update":
		return "UPDATE"
	default:
		return "DELETE"
	}
}
