package persistence

import (
	"time"
)

func createEvent(
	eventType MutationEventType,
	operation string,
	table string,
	sql string,
	params int,
	rowsAffected *int64,
	err *string,
	startTime time.Time,
) MutationEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	return MutationEvent{
		Type:         eventType,
		Timestamp:    time.Now().UnixMilli(),
		Operation:    operation,
		Table:        table,
		SQL:          sql,
		Params:       params,
		RowsAffected: rowsAffected,
		Error:        err,
		Duration:     duration,
	}
}
