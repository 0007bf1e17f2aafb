package memory

import (
	"context"

	"github.com/ahrav/scanbridge/internal/domain/events"
)

// DomainEventPublisher publishes domain events to an event bus. It bridges
// the domain layer's abstract event publishing to the underlying transport.
type DomainEventPublisher struct{ bus events.EventBus }

// NewDomainEventPublisher creates a publisher backed by the provided bus.
func NewDomainEventPublisher(bus events.EventBus) *DomainEventPublisher {
	return &DomainEventPublisher{bus: bus}
}

// PublishDomainEvent wraps a domain event in an envelope and hands it to the
// bus. Publish options (routing key, headers) pass through unchanged.
func (p *DomainEventPublisher) PublishDomainEvent(ctx context.Context, event events.DomainEvent, opts ...events.PublishOption) error {
	envelope := events.EventEnvelope{
		Type:      event.EventType(),
		Timestamp: event.OccurredAt(),
		Payload:   event,
	}
	return p.bus.Publish(ctx, envelope, opts...)
}
