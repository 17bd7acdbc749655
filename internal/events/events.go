// Package events publishes ledger changes to interested consumers once the
// database transaction that produced them has committed.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
)

// Type names a ledger event; it doubles as the AMQP routing key.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
	InvoiceSettled     Type = "invoice.settled"
)

// Event is the message body published for every ledger change.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id"`
	Amount     string    `json:"amount,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New creates an event stamped with the current time.
func New(t Type, userID, entityID string) Event {
	return Event{Type: t, UserID: userID, EntityID: entityID, OccurredAt: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event from JSON bytes
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Notify publishes every event and only logs failures: the ledger change has
// already committed and must not be reported as failed.
func Notify(ctx context.Context, p Publisher, evts ...Event) {
	if p == nil {
		return
	}
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			logger.Get().Warnw("Failed to publish ledger event",
				"type", e.Type,
				"entity_id", e.EntityID,
				"error", err,
			)
		}
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (m *MemoryPublisher) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Close implements Publisher.
func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
