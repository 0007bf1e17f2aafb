package scanning

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ahrav/scanbridge/internal/domain/events"
	domain "github.com/ahrav/scanbridge/internal/domain/scanning"
)

// mockDomainEventPublisher implements events.DomainEventPublisher for testing.
type mockDomainEventPublisher struct{ mock.Mock }

func (m *mockDomainEventPublisher) PublishDomainEvent(ctx context.Context, event events.DomainEvent, opts ...events.PublishOption) error {
	args := m.Called(ctx, event, opts)
	return args.Error(0)
}

// mockSessionRepo implements domain.SessionRepository for testing.
type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if session := args.Get(0); session != nil {
		return session.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) UpdateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	args := m.Called(ctx)
	if sessions := args.Get(0); sessions != nil {
		return sessions.([]*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// capturePublisher implements events.DomainEventPublisher by recording every
// event it sees. Used where tests assert on event sequences rather than on
// call expectations.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturePublisher) PublishDomainEvent(_ context.Context, event events.DomainEvent, _ ...events.PublishOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *capturePublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// countingSessionMetrics implements SessionMetrics by counting invocations.
type countingSessionMetrics struct {
	mu sync.Mutex

	sessionsStarted   int
	sessionsCompleted int
	sessionsFailed    int
	phaseTransitions  []string
	busyRetries       int
	pagesLoaded       int
	pageBytes         int64
}

func (m *countingSessionMetrics) IncSessionsStarted(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsStarted++
}

func (m *countingSessionMetrics) IncSessionsCompleted(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCompleted++
}

func (m *countingSessionMetrics) IncSessionsFailed(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsFailed++
}

func (m *countingSessionMetrics) TrackSession(_ context.Context, f func() error) error { return f() }

func (m *countingSessionMetrics) IncPhaseTransitions(_ context.Context, _ string, phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phaseTransitions = append(m.phaseTransitions, phase)
}

func (m *countingSessionMetrics) IncDeviceBusyRetries(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busyRetries++
}

func (m *countingSessionMetrics) ObservePagesLoaded(_ context.Context, _ string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagesLoaded += count
}

func (m *countingSessionMetrics) ObservePageBytes(_ context.Context, _ string, sizeBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageBytes += sizeBytes
}
