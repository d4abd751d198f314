package orders

import (
	"context"
	"time"
)

// EventType names an order event.
type EventType string

const (
	EventStatusChanged  EventType = "order.status_changed"
	EventEmailAttempted EventType = "order.email_attempted"
)

// Event is published after an order change has been persisted.
type Event struct {
	Type          EventType   `json:"type"`
	OrderID       string      `json:"order_id"`
	Status        Status      `json:"status"`
	EmailStatus   EmailStatus `json:"email_status"`
	EmailAttempts int         `json:"email_attempts"`
	OccurredAt    string      `json:"occurred_at"`
}

// EventPublisher forwards order events to a queue.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev Event) error
}

// NewEvent snapshots o into an Event.
func NewEvent(typ EventType, o Order, at time.Time) Event {
	return Event{
		Type:          typ,
		OrderID:       o.OrderID,
		Status:        o.Status,
		EmailStatus:   o.Email.Status,
		EmailAttempts: o.Email.Attempts,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
