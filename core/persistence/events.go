package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type subscriptions struct {
	mu   sync.RWMutex
	byID map[string]*SubscriptionInfo
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byID: map[string]*SubscriptionInfo{}}
}

// emit publishes event when events are enabled.
func (m *Mutator) emit(event MutationEvent) {
	if m.bus != nil {
		m.bus.Emit(string(event.Type), event)
	}
}

// RegisterSubscription registers a callback for a mutation event and returns
// the id to unregister it with. It returns "" when events are disabled or the
// callback is nil.
func (m *Mutator) RegisterSubscription(options RegisterSubscriptionOptions) string {
	if options.Callback == nil {
		m.logger.Warn("Ignoring subscription without a callback", zap.String("event", string(options.Event)))
		return ""
	}
	if m.bus == nil {
		m.logger.Warn("Ignoring subscription, events are disabled", zap.String("event", string(options.Event)))
		return ""
	}

	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()

	callback := options.Callback
	unsubscribe := m.bus.Subscribe(string(options.Event), func(ctx context.Context, event MutationEvent) error {
		return callback(ctx, event)
	})
	id := uuid.New().String()

	m.subs.byID[id] = &SubscriptionInfo{
		Id:          id,
		Event:       options.Event,
		Label:       options.Label,
		Unsubscribe: unsubscribe,
	}
	return id
}

// UnregisterSubscription removes a subscription by its id.
func (m *Mutator) UnregisterSubscription(id string) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()

	if sub, ok := m.subs.byID[id]; ok {
		sub.Unsubscribe()
		delete(m.subs.byID, id)
	}
}

// Subscriptions returns the registered subscriptions.
func (m *Mutator) Subscriptions() []SubscriptionInfo {
	m.subs.mu.RLock()
	defer m.subs.mu.RUnlock()

	out := make([]SubscriptionInfo, 0, len(m.subs.byID))
	for _, sub := range m.subs.byID {
		out = append(out, *sub)
	}
	return out
}
