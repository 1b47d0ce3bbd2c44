package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeSettled EventType = "settled"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeRecord EntityType = "lend_borrow"
	EntityTypeReturn EntityType = "lend_borrow_return"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "lend_borrow.settled"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "lend_borrow"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordCreated creates a lend_borrow.created event
func RecordCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeRecord, payload)
}

// RecordUpdated creates a lend_borrow.updated event
func RecordUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeRecord, payload)
}

// RecordDeleted creates a lend_borrow.deleted event
func RecordDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeRecord, payload)
}

// RecordSettled creates a lend_borrow.settled event. Clients re-fetch both
// the record list and the account list on receipt, since a settlement can
// move account balances.
func RecordSettled(payload interface{}) Event {
	return NewEvent(EventTypeSettled, EntityTypeRecord, payload)
}

// ReturnCreated creates a lend_borrow_return.created event
func ReturnCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeReturn, payload)
}
