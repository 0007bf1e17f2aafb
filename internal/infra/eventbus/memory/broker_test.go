package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/scanbridge/internal/domain/events"
	"github.com/ahrav/scanbridge/internal/domain/ident"
	"github.com/ahrav/scanbridge/internal/domain/scanning"
)

func TestPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)

	expected := events.EventEnvelope{
		Type:      scanning.EventTypeSessionStarted,
		Key:       "session-1",
		Timestamp: time.Now().UTC(),
		Payload:   "payload",
	}

	err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		defer wg.Done()
		assert.Equal(t, expected, envelope)
		return nil
	})
	assert.NoError(t, err)

	err = broker.Publish(ctx, expected)
	assert.NoError(t, err)

	wg.Wait()
}

func TestSubscribeFiltersByEventType(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)

	err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionCompleted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		defer wg.Done()
		assert.Equal(t, scanning.EventTypeSessionCompleted, envelope.Type)
		return nil
	})
	assert.NoError(t, err)

	// Nothing listens for started events; this publish must not reach the handler.
	err = broker.Publish(ctx, events.EventEnvelope{Type: scanning.EventTypeSessionStarted})
	assert.NoError(t, err)

	err = broker.Publish(ctx, events.EventEnvelope{Type: scanning.EventTypeSessionCompleted})
	assert.NoError(t, err)

	wg.Wait()
}

func TestMultipleSubscribers(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	subscriberCount := 3
	wg.Add(subscriberCount)

	envelope := events.EventEnvelope{
		Type: scanning.EventTypeSessionPhaseChanged,
		Key:  "session-2",
	}

	for i := 0; i < subscriberCount; i++ {
		err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionPhaseChanged}, func(ctx context.Context, received events.EventEnvelope) error {
			defer wg.Done()
			assert.Equal(t, envelope, received)
			return nil
		})
		assert.NoError(t, err)
	}

	err := broker.Publish(ctx, envelope)
	assert.NoError(t, err)

	wg.Wait()
}

func TestHandlerError(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	expectedErr := errors.New("handler error")

	// Subscribe with an error-returning handler.
	err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionFailed}, func(ctx context.Context, envelope events.EventEnvelope) error {
		return expectedErr
	})
	assert.NoError(t, err)

	err = broker.Publish(ctx, events.EventEnvelope{Type: scanning.EventTypeSessionFailed})
	assert.ErrorIs(t, err, expectedErr)
}

func TestNilHandlerRejected(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	err := broker.Subscribe(context.Background(), []events.EventType{scanning.EventTypeSessionStarted}, nil)
	assert.Error(t, err)
}

func TestPublishOptionsOverrideEnvelope(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)

	err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeDeviceRegistered}, func(ctx context.Context, envelope events.EventEnvelope) error {
		defer wg.Done()
		assert.Equal(t, "device-key", envelope.Key)
		assert.Equal(t, map[string]string{"origin": "config"}, envelope.Headers)
		return nil
	})
	assert.NoError(t, err)

	err = broker.Publish(ctx,
		events.EventEnvelope{Type: scanning.EventTypeDeviceRegistered},
		events.WithKey("device-key"),
		events.WithHeaders(map[string]string{"origin": "config"}),
	)
	assert.NoError(t, err)

	wg.Wait()
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	eventCount := 100
	subscriberCount := 5
	wg.Add(eventCount * subscriberCount)

	for i := 0; i < subscriberCount; i++ {
		err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
			defer wg.Done()
			return nil
		})
		assert.NoError(t, err)
	}

	for i := 0; i < eventCount; i++ {
		go func() {
			err := broker.Publish(ctx, events.EventEnvelope{
				Type: scanning.EventTypeSessionStarted,
				Key:  uuid.New().String(),
			})
			assert.NoError(t, err)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success.
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for handlers")
	}
}

func TestSubscriptionRemovedOnContextCancel(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	subCtx, cancel := context.WithCancel(context.Background())

	delivered := make(chan struct{}, 1)
	err := broker.Subscribe(subCtx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		delivered <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	cancel()

	// Removal happens on a background goroutine; wait for it to take effect.
	assert.Eventually(t, func() bool {
		broker.mu.RLock()
		defer broker.mu.RUnlock()
		return len(broker.subscribers[scanning.EventTypeSessionStarted]) == 0
	}, time.Second, 10*time.Millisecond)

	err = broker.Publish(context.Background(), events.EventEnvelope{Type: scanning.EventTypeSessionStarted})
	assert.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel context before publishing.
	cancel()

	err := broker.Publish(ctx, events.EventEnvelope{Type: scanning.EventTypeSessionStarted})
	assert.ErrorIs(t, err, context.Canceled)

	err = broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()

	require.NoError(t, broker.Close())

	err := broker.Publish(ctx, events.EventEnvelope{Type: scanning.EventTypeSessionStarted})
	assert.Error(t, err)

	err = broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		return nil
	})
	assert.Error(t, err)
}

func TestDomainEventPublisherBuildsEnvelope(t *testing.T) {
	t.Parallel()

	broker := NewBroker()
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)

	sessionID := uuid.New()
	event := scanning.NewSessionStartedEvent(sessionID, "front-desk", ident.SourceFlatbed, ident.ColorModeColor, ident.FormatJPEG)

	err := broker.Subscribe(ctx, []events.EventType{scanning.EventTypeSessionStarted}, func(ctx context.Context, envelope events.EventEnvelope) error {
		defer wg.Done()
		assert.Equal(t, scanning.EventTypeSessionStarted, envelope.Type)
		assert.Equal(t, sessionID.String(), envelope.Key)
		assert.Equal(t, event.OccurredAt(), envelope.Timestamp)
		assert.Equal(t, event, envelope.Payload)
		return nil
	})
	require.NoError(t, err)

	publisher := NewDomainEventPublisher(broker)
	err = publisher.PublishDomainEvent(ctx, event, events.WithKey(sessionID.String()))
	assert.NoError(t, err)

	wg.Wait()
}
