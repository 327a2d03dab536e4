package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/asaidimu/go-matchsql/core/match"
	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/asaidimu/go-matchsql/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var jobs = schema.TableColumns{
	Name:  "jobs",
	Alias: "j",
	Cols:  []string{"id", "name", "rate"},
}

type job struct {
	id   schema.Id
	name string
	rate float64
}

func populateJobs(rows []job) func(*query.Builder) {
	return func(b *query.Builder) {
		b.PushValues(len(rows), func(i int) []any {
			return []any{rows[i].id, rows[i].name, rows[i].rate}
		})
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newPostgresMutator(t *testing.T, options *Options) (*Mutator, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	m, err := NewMutator(postgres.NewDialect(), zap.New(core), options)
	require.NoError(t, err)
	return m, logs
}

func TestNewMutator(t *testing.T) {
	_, err := NewMutator(nil, nil, nil)
	assert.Error(t, err)

	m, err := NewMutator(postgres.NewDialect(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", m.Dialect().Name())
	assert.NotNil(t, m.bus)

	m, err = NewMutator(postgres.NewDialect(), nil, &Options{EmitEvents: false})
	require.NoError(t, err)
	assert.Nil(t, m.bus)
}

func TestBuildDelete(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	tests := []struct {
		name         string
		ids          []schema.Id
		expectedSQL  string
		expectedArgs []any
	}{
		{"single id", []schema.Id{3}, "DELETE FROM jobs WHERE (id = $1)", []any{schema.Id(3)}},
		{"two ids", []schema.Id{3, 7}, "DELETE FROM jobs WHERE (id = $1) OR (id = $2)", []any{schema.Id(3), schema.Id(7)}},
		{"input order kept", []schema.Id{9, 1, 5}, "DELETE FROM jobs WHERE (id = $1) OR (id = $2) OR (id = $3)", []any{schema.Id(9), schema.Id(1), schema.Id(5)}},
		{"duplicates kept", []schema.Id{4, 4}, "DELETE FROM jobs WHERE (id = $1) OR (id = $2)", []any{schema.Id(4), schema.Id(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := m.BuildDelete(jobs, tt.ids)
			require.True(t, ok)
			assert.Equal(t, tt.expectedSQL, b.SQL())
			assert.Equal(t, tt.expectedArgs, b.Args())
		})
	}

	b, ok := m.BuildDelete(jobs, nil)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestBuildDelete_QualifiedTable(t *testing.T) {
	m, _ := newPostgresMutator(t, &Options{TablePrefix: "app_", SchemaName: "billing"})

	b, ok := m.BuildDelete(jobs, []schema.Id{1})
	require.True(t, ok)
	assert.Equal(t, "DELETE FROM billing.app_jobs WHERE (id = $1)", b.SQL())
}

func TestBuildUpdate(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	b, ok, err := m.BuildUpdate(jobs, populateJobs([]job{{1, "alpha", 10}, {2, "beta", 12.5}}))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t,
		"UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate"+
			" FROM (VALUES ($1, $2, $3), ($4, $5, $6)) AS j_v (id, name, rate)"+
			" WHERE j.id = j_v.id",
		b.SQL())
	assert.Equal(t, []any{schema.Id(1), "alpha", 10.0, schema.Id(2), "beta", 12.5}, b.Args())
}

func TestBuildUpdate_TypedValues(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	typed := jobs
	typed.Types = map[string]schema.FieldType{
		"id":   schema.FieldTypeInteger,
		"name": schema.FieldTypeString,
		"rate": schema.FieldTypeDecimal,
	}

	b, ok, err := m.BuildUpdate(typed, func(b *query.Builder) {
		b.PushTypedValues(typed, 1, func(int) []any { return []any{schema.Id(1), "alpha", 10.0} })
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t,
		"UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate"+
			" FROM (VALUES ($1::bigint, $2::text, $3::numeric)) AS j_v (id, name, rate)"+
			" WHERE j.id = j_v.id",
		b.SQL())
}

func TestBuildUpdate_CompositeKey(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	rates := schema.TableColumns{
		Name:    "rates",
		Alias:   "r",
		Cols:    []string{"client_id", "job_id", "rate"},
		KeyCols: []string{"client_id", "job_id"},
	}

	b, ok, err := m.BuildUpdate(rates, func(b *query.Builder) {
		b.PushValues(1, func(int) []any { return []any{1, 2, 3.5} })
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t,
		"UPDATE rates AS r SET rate = r_v.rate"+
			" FROM (VALUES ($1, $2, $3)) AS r_v (client_id, job_id, rate)"+
			" WHERE r.client_id = r_v.client_id AND r.job_id = r_v.job_id",
		b.SQL())
}

func TestBuildUpdate_NothingToSet(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	keysOnly := schema.TableColumns{Name: "tags", Alias: "t", Cols: []string{"id"}}
	_, ok, err := m.BuildUpdate(keysOnly, populateJobs(nil))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNothingToSet)
}

func TestBuildUpdate_EmptyPopulate(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	b, ok, err := m.BuildUpdate(jobs, populateJobs(nil))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestBuildDeleteWhere(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	b, err := m.BuildDeleteWhere(jobs, []query.Condition{
		{Column: "name", Match: match.From(4)},
		{Column: "rate", Match: match.Range(0, 10)},
	})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM jobs WHERE name = $1 AND (rate BETWEEN $2 AND $3)", b.SQL())
	assert.Equal(t, []any{4, 0, 10}, b.Args())

	_, err = m.BuildDeleteWhere(jobs, nil)
	assert.Error(t, err)
}

func TestBuildDeleteWhere_RejectsColumns(t *testing.T) {
	m, _ := newPostgresMutator(t, nil)

	tests := []struct {
		name   string
		table  schema.Table
		column string
		errMsg string
	}{
		{"sql in column", jobs, "id = 1 OR 1 = 1 OR id", "invalid column"},
		{"comment in column", jobs, "id --", "invalid column"},
		{"unknown column", jobs, "client_id", "has no column"},
		{"sql in column of plain table", plainTable("jobs"), "1 = 1 OR id", "invalid column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := m.BuildDeleteWhere(tt.table, []query.Condition{
				{Column: "id", Match: match.From(1)},
				{Column: tt.column, Match: match.From(999)},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, b)
		})
	}

	b, err := m.BuildDeleteWhere(plainTable("jobs"), []query.Condition{{Column: "client_id", Match: match.From(4)}})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM jobs WHERE client_id = $1", b.SQL())
}

func TestDeleteWhere_RejectedColumnExecutesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	n, err := m.DeleteWhere(context.Background(), db, jobs, query.Condition{Column: "id = 1 OR 1 = 1 OR id", Match: match.From(999)})
	require.Error(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

type plainTable string

func (p plainTable) TableName() string    { return string(p) }
func (p plainTable) DefaultAlias() string { return "t" }

func TestDelete(t *testing.T) {
	db, mock := newMockDB(t)
	m, logs := newPostgresMutator(t, nil)

	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1) OR (id = $2)").
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := m.Delete(context.Background(), db, jobs, []schema.Id{3, 7})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 1, logs.FilterMessage("Executing SQL DELETE").Len())
	assert.Equal(t, 1, logs.FilterMessage("Executed SQL DELETE").Len())
}

func TestDelete_AbsentIds(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1)").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, m.Delete(context.Background(), db, jobs, []schema.Id{404}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	m, logs := newPostgresMutator(t, nil)

	require.NoError(t, m.Delete(context.Background(), db, jobs, nil))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("Skipping batch DELETE with no ids").Len())
}

func TestDelete_Error(t *testing.T) {
	db, mock := newMockDB(t)
	m, logs := newPostgresMutator(t, nil)

	pgErr := &pgconn.PgError{Code: "23503", Message: "update or delete on table \"jobs\" violates foreign key constraint"}
	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1)").
		WithArgs(int64(1)).
		WillReturnError(pgErr)

	err := m.Delete(context.Background(), db, jobs, []schema.Id{1})
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "delete", execErr.Op)
	assert.Equal(t, "jobs", execErr.Table)
	assert.Equal(t, "23503", execErr.Code)
	assert.Equal(t, "DELETE FROM jobs WHERE (id = $1)", execErr.SQL)
	assert.ErrorIs(t, err, pgErr)
	assert.Contains(t, err.Error(), "(code 23503)")

	assert.Equal(t, 1, logs.FilterMessage("Failed to execute DELETE query").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectExec("DELETE FROM jobs WHERE name LIKE $1 ESCAPE '\\'").
		WithArgs("%10\\%%").
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := m.DeleteWhere(context.Background(), db, jobs, query.Condition{Column: "name", Match: match.Contains{Substring: "10%"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate FROM (VALUES ($1, $2, $3)) AS j_v (id, name, rate) WHERE j.id = j_v.id").
		WithArgs(int64(1), "alpha", 10.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, m.Update(context.Background(), tx, jobs, populateJobs([]job{{1, "alpha", 10}})))
	require.NoError(t, tx.Commit())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyPopulate(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, m.Update(context.Background(), tx, jobs, populateJobs(nil)))
	require.NoError(t, tx.Rollback())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ErrorLeavesTransactionToCaller(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate FROM (VALUES ($1, $2, $3)) AS j_v (id, name, rate) WHERE j.id = j_v.id").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	err = m.Update(context.Background(), tx, jobs, populateJobs([]job{{1, "alpha", 10}}))
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "update", execErr.Op)
	assert.Equal(t, "", execErr.Code)
	assert.Equal(t, "failed to execute batch update on jobs: connection reset", err.Error())

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
