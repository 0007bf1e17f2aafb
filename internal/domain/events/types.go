package events

// EventType represents a domain event category, enabling type-safe event
// routing and handling. It lets subscribers distinguish session lifecycle
// changes from device announcements without inspecting payloads.
type EventType string

// PublishOption is a function type that modifies PublishParams. It enables
// flexible configuration of event publishing behavior through functional
// options.
type PublishOption func(*PublishParams)

// PublishParams contains configuration options for publishing domain events.
type PublishParams struct {
	// Key is used to group related events for ordered handling.
	Key string
	// Headers contain metadata key-value pairs attached to the event.
	Headers map[string]string
}

// WithKey returns a PublishOption that sets the grouping key for event
// routing. Events sharing a key are delivered in publish order.
func WithKey(key string) PublishOption {
	return func(p *PublishParams) { p.Key = key }
}

// WithHeaders returns a PublishOption that attaches metadata headers to an
// event.
func WithHeaders(headers map[string]string) PublishOption {
	return func(p *PublishParams) { p.Headers = headers }
}
