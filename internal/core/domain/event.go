package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProductCreated     EventType = "product.created"
	EventProductUpdated     EventType = "product.updated"
	EventProductDeleted     EventType = "product.deleted"
	EventStockChanged       EventType = "product.stock_changed"
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventUserRegistered     EventType = "user.registered"
)

// Event notifies subscribers that a mutation committed. It is published after
// the store mutation succeeded, never before.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, entityID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		EntityID:   entityID,
		OccurredAt: time.Now(),
	}
}
