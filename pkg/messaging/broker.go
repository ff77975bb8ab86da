package messaging

import (
	"context"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published for in-app notifications.
type Message struct {
	Type      string      `json:"type"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserChannel is the pub/sub channel a client subscribes to for its own
// notifications.
func UserChannel(userID string) string {
	return "notifications:" + userID
}
