package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/asaidimu/go-matchsql/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []MutationEvent
}

func (r *eventRecorder) record(_ context.Context, event MutationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) snapshot() []MutationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MutationEvent(nil), r.events...)
}

func TestRegisterSubscription(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	label := "audit"
	recorder := &eventRecorder{}
	id := m.RegisterSubscription(RegisterSubscriptionOptions{
		Event:    BatchDeleteSuccess,
		Label:    &label,
		Callback: recorder.record,
	})
	require.NotEmpty(t, id)

	subs := m.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, id, subs[0].Id)
	assert.Equal(t, BatchDeleteSuccess, subs[0].Event)
	assert.Equal(t, "audit", *subs[0].Label)

	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1) OR (id = $2)").
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, m.Delete(context.Background(), db, jobs, []schema.Id{3, 7}))

	assert.Eventually(t, func() bool { return len(recorder.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	event := recorder.snapshot()[0]
	assert.Equal(t, BatchDeleteSuccess, event.Type)
	assert.Equal(t, "delete", event.Operation)
	assert.Equal(t, "jobs", event.Table)
	assert.Equal(t, 2, event.Params)
	require.NotNil(t, event.RowsAffected)
	assert.Equal(t, int64(2), *event.RowsAffected)
	assert.NotNil(t, event.Duration)
	assert.Nil(t, event.Error)

	m.UnregisterSubscription(id)
	assert.Empty(t, m.Subscriptions())
}

func TestRegisterSubscription_FailedEvent(t *testing.T) {
	db, mock := newMockDB(t)
	m, _ := newPostgresMutator(t, nil)

	recorder := &eventRecorder{}
	m.RegisterSubscription(RegisterSubscriptionOptions{Event: BatchUpdateFailed, Callback: recorder.record})

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE jobs AS j SET name = j_v.name, rate = j_v.rate FROM (VALUES ($1, $2, $3)) AS j_v (id, name, rate) WHERE j.id = j_v.id").
		WillReturnError(errors.New("deadlock detected"))

	tx, err := db.Begin()
	require.NoError(t, err)
	require.Error(t, m.Update(context.Background(), tx, jobs, populateJobs([]job{{1, "alpha", 10}})))

	assert.Eventually(t, func() bool { return len(recorder.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	event := recorder.snapshot()[0]
	assert.Equal(t, BatchUpdateFailed, event.Type)
	require.NotNil(t, event.Error)
	assert.Contains(t, *event.Error, "deadlock detected")
	assert.Nil(t, event.RowsAffected)
}

func TestRegisterSubscription_EventsDisabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m, err := NewMutator(postgres.NewDialect(), zap.New(core), &Options{EmitEvents: false})
	require.NoError(t, err)

	id := m.RegisterSubscription(RegisterSubscriptionOptions{Event: BatchDeleteStart, Callback: (&eventRecorder{}).record})
	assert.Empty(t, id)
	assert.Empty(t, m.Subscriptions())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring subscription, events are disabled").Len())

	// Unknown ids are ignored.
	m.UnregisterSubscription("missing")
}

func TestRegisterSubscription_NilCallback(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m, err := NewMutator(postgres.NewDialect(), zap.New(core), &Options{EmitEvents: true})
	require.NoError(t, err)

	id := m.RegisterSubscription(RegisterSubscriptionOptions{Event: BatchDeleteSuccess})
	assert.Empty(t, id)
	assert.Empty(t, m.Subscriptions())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring subscription without a callback").Len())

	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM jobs WHERE (id = $1)").
		WithArgs(schema.Id(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, m.Delete(context.Background(), db, jobs, []schema.Id{1}))
	require.NoError(t, mock.ExpectationsWereMet())
}
