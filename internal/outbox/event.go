// Package outbox implements the transactional outbox: domain events are
// appended in the same transaction as the writes that caused them and a
// worker publishes them afterwards.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened.
type EventType string

const (
	EventContactCreated  EventType = "contact.created"
	EventContactDemoted  EventType = "contact.demoted"
	EventContactRelinked EventType = "contact.relinked"
	EventOrderCreated    EventType = "order.created"
)

// Aggregate types. The aggregate id is the partition key downstream, so all
// events of one cluster primary land on the same partition.
const (
	AggregateContact = "contact"
	AggregateOrder   = "order"
)

// Event is one outbox row.
type Event struct {
	ID            uuid.UUID
	Type          EventType
	AggregateType string
	AggregateID   string
	Payload       json.RawMessage
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewEvent marshals payload into a fresh event.
func NewEvent(eventType EventType, aggregateType, aggregateID string, payload any, now time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       body,
		CreatedAt:     now,
	}, nil
}

// envelope is the wire format published to the broker.
type envelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    string          `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Encode renders the broker message body.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(envelope{
		ID:            e.ID.String(),
		Type:          e.Type,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		OccurredAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
		Payload:       e.Payload,
	})
}
