// Package memory provides an in-process implementation of the event bus.
// It offers a lightweight, non-persistent broker suitable for a
// single-process gateway, development, and tests, where durability is not
// required.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ahrav/scanbridge/internal/domain/events"
)

type subscription struct {
	id      int
	handler events.HandlerFunc
}

// Broker is an in-process implementation of events.EventBus. Handlers are
// invoked synchronously on the publisher's goroutine, stopping at the first
// error.
type Broker struct {
	mu     sync.RWMutex
	closed bool
	nextID int

	subscribers map[events.EventType][]subscription
}

// NewBroker creates and initializes a new in-process event broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[events.EventType][]subscription)}
}

// Publish broadcasts an envelope to every handler subscribed to its type.
// Handlers are copied before iteration so a handler may subscribe or cancel
// without deadlocking the bus.
func (b *Broker) Publish(ctx context.Context, envelope events.EventEnvelope, opts ...events.PublishOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var params events.PublishParams
	for _, opt := range opts {
		opt(&params)
	}
	if params.Key != "" {
		envelope.Key = params.Key
	}
	if len(params.Headers) > 0 {
		envelope.Headers = params.Headers
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.New("event bus is closed")
	}
	subs := make([]subscription, len(b.subscribers[envelope.Type]))
	copy(subs, b.subscribers[envelope.Type])
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sub.handler(ctx, envelope); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for the given event types. The handler is
// removed when ctx is canceled.
func (b *Broker) Subscribe(ctx context.Context, eventTypes []events.EventType, handler events.HandlerFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("event bus is closed")
	}
	id := b.nextID
	b.nextID++
	for _, et := range eventTypes {
		b.subscribers[et] = append(b.subscribers[et], subscription{id: id, handler: handler})
	}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, et := range eventTypes {
			subs := b.subscribers[et]
			for i, sub := range subs {
				if sub.id == id {
					b.subscribers[et] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		}
	}()

	return nil
}

// Close shuts down the broker. Subsequent publishes and subscriptions fail.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = make(map[events.EventType][]subscription)
	return nil
}
