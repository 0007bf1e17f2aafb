// Package events provides domain event handling capabilities for
// communicating state changes across component boundaries in a decoupled
// way.
package events

import "context"

// DomainEventPublisher publishes domain events to notify other parts of the
// system about important domain changes. It decouples event producers from
// the underlying delivery mechanism.
type DomainEventPublisher interface {
	// PublishDomainEvent sends a domain event to interested subscribers.
	// Optional PublishOptions configure routing behavior.
	PublishDomainEvent(ctx context.Context, event DomainEvent, opts ...PublishOption) error
}

// HandlerFunc processes one delivered event envelope. How a handler error
// affects delivery to the remaining subscribers is bus-specific.
type HandlerFunc func(ctx context.Context, envelope EventEnvelope) error

// EventBus enables publishing and subscribing to event envelopes across
// component boundaries. It abstracts the delivery mechanism so domain logic
// stays focused on business concerns.
type EventBus interface {
	// Publish broadcasts an event envelope to all interested subscribers.
	Publish(ctx context.Context, envelope EventEnvelope, opts ...PublishOption) error

	// Subscribe registers a handler function to process events of the
	// specified types. The handler executes for each matching event
	// received on this bus.
	Subscribe(ctx context.Context, eventTypes []EventType, handler HandlerFunc) error

	// Close gracefully shuts down the event bus and releases associated
	// resources.
	Close() error
}
