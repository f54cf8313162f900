package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeApplied   EventType = "applied"
	EventTypeCancelled EventType = "cancelled"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeLoan    EntityType = "loan"
	EntityTypePayment EntityType = "payment"
	EntityTypeClient  EntityType = "client"
)

// Event is a ledger event pushed to connected operator sessions
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.applied"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
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
