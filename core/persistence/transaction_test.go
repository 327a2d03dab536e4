package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransact_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1)").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate FROM (VALUES ($1, $2, $3)) AS j_v (id, name, rate) WHERE j.id = j_v.id").
		WithArgs(int64(2), "beta", 12.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := Transact(context.Background(), db, func(tx Transaction) error {
		if err := m.Delete(context.Background(), tx, jobs, []schema.Id{1}); err != nil {
			return err
		}
		return m.Update(context.Background(), tx, jobs, populateJobs([]job{{2, "beta", 12.5}}))
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1)").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := Transact(context.Background(), db, func(tx Transaction) error {
		return m.Delete(context.Background(), tx, jobs, []schema.Id{1})
	})

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_BeginAndCommitErrors(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	err := Transact(context.Background(), db, func(Transaction) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	err = Transact(context.Background(), db, func(Transaction) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")

	require.NoError(t, mock.ExpectationsWereMet())
}
