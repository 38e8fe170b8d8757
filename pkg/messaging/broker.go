package messaging

import (
	"context"
	"time"
)

//go:generate mockgen -source=broker.go -destination=mocks/mocks.go -package=mocks Broker

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel names.
const (
	ChannelVisitBooked = "clinic.visit.booked"
)

// Message is the envelope published on every channel.
type Message struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}
