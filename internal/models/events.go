package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventTypeOrderPlaced            = "ORDER_PLACED"
	EventTypeOrderStatusChanged     = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PasswordResetRequestedEvent carries the reset link to the mail sender
type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	ResetURL string    `json:"reset_url"`
}

// OrderPlacedEvent published when an order is created
type OrderPlacedEvent struct {
	BaseEvent
	OrderID    uuid.UUID       `json:"order_id"`
	UserID     uuid.UUID       `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []OrderItem     `json:"items"`
}

// OrderStatusChangedEvent published after an admin moves an order forward
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID uuid.UUID   `json:"order_id"`
	UserID  uuid.UUID   `json:"user_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}
