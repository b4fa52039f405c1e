// Package pubsub provides a generic publish/subscribe event system.
//
// The application root owns one Broker per payload type and injects it into
// the components that need it; nothing in this package is global.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of change being published.
type EventType string

const (
	CreatedEvent EventType = "created"
	ChangedEvent EventType = "changed"
	DeletedEvent EventType = "deleted"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
// The subscription lasts until ctx is cancelled.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// Bus is both ends of a broker.
type Bus[T any] interface {
	Subscriber[T]
	Publisher[T]
}
