package persistence

import "context"

// MutationEventType is the name of an event published by a Mutator.
type MutationEventType string

const (
	BatchDeleteStart   MutationEventType = "batch:delete:start"
	BatchDeleteSuccess MutationEventType = "batch:delete:success"
	BatchDeleteFailed  MutationEventType = "batch:delete:failed"
	BatchUpdateStart   MutationEventType = "batch:update:start"
	BatchUpdateSuccess MutationEventType = "batch:update:success"
	BatchUpdateFailed  MutationEventType = "batch:update:failed"
)

// MutationEvent describes one batch statement.
type MutationEvent struct {
	Type         MutationEventType `json:"type"`
	Timestamp    int64             `json:"timestamp"` // Unix milliseconds.
	Operation    string            `json:"operation"`
	Table        string            `json:"table"`
	SQL          string            `json:"sql,omitempty"`
	Params       int               `json:"params"`
	RowsAffected *int64            `json:"rowsAffected,omitempty"`
	Error        *string           `json:"error,omitempty"`
	Duration     *int64            `json:"duration,omitempty"` // Milliseconds, set on success and failure.
}

// EventCallbackFunction receives published events.
type EventCallbackFunction func(ctx context.Context, event MutationEvent) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          string            `json:"id"`
	Event       MutationEventType `json:"event"`
	Label       *string           `json:"label,omitempty"`
	Unsubscribe func()            `json:"-"`
}

// RegisterSubscriptionOptions configures RegisterSubscription.
type RegisterSubscriptionOptions struct {
	Event    MutationEventType
	Label    *string
	Callback EventCallbackFunction
}
