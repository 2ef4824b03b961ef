package amqp

import (
	"encoding/json"
	"time"
)

// Notification kinds carried on the queue.
const (
	KindBudgetAlert = "budget_alert"
	KindInactivity  = "inactivity"
)

// NotificationMessage references an outbox row by ID. The consumer fetches
// subject and body from the database, so the payload stays small.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotificationMessage creates a message for an enqueued notification
func NewNotificationMessage(id, kind string) *NotificationMessage {
	return &NotificationMessage{
		ID:        id,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
