package events

import "time"

// DomainEvent is implemented by domain occurrences that can be published:
// session lifecycle changes, device registrations. Implementations carry
// their own payload fields; the bus only needs the type and time.
type DomainEvent interface {
	// EventType identifies the category of this event for routing.
	EventType() EventType

	// OccurredAt returns when the occurrence happened.
	OccurredAt() time.Time
}

// EventEnvelope wraps a domain event for delivery through an event bus.
type EventEnvelope struct {
	// Type identifies the category of this event for routing and handling.
	Type EventType

	// Key groups related events for ordered handling, typically a session id.
	Key string

	// Headers contain metadata key-value pairs attached to the event.
	Headers map[string]string

	// Timestamp records when the wrapped event occurred.
	Timestamp time.Time

	// Payload is the domain event itself (e.g. SessionStartedEvent).
	Payload any
}
