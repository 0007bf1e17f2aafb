// Package memory provides an in-memory implementation of the scanning
// storage ports for a single-process gateway, development, and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/scanning"
)

// SessionStore provides an in-memory implementation of
// scanning.SessionRepository. Sessions are deep copied on the way in and
// out so callers never share mutable aggregate state with the store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*scanning.Session // Keyed by session ID
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*scanning.Session)}
}

// CreateSession persists a new session. It fails if the id is already taken.
func (s *SessionStore) CreateSession(ctx context.Context, session *scanning.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID()]; exists {
		return fmt.Errorf("session %s already exists", session.ID())
	}
	s.sessions[session.ID()] = deepCopySession(session)
	return nil
}

// GetSession retrieves a session by id, or scanning.ErrSessionNotFound.
func (s *SessionStore) GetSession(ctx context.Context, id uuid.UUID) (*scanning.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", scanning.ErrSessionNotFound, id)
	}
	return deepCopySession(session), nil
}

// UpdateSession persists changes to an existing session.
func (s *SessionStore) UpdateSession(ctx context.Context, session *scanning.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID()]; !exists {
		return fmt.Errorf("%w: %s", scanning.ErrSessionNotFound, session.ID())
	}
	s.sessions[session.ID()] = deepCopySession(session)
	return nil
}

// ListSessions returns all sessions, most recently started first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]*scanning.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*scanning.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, deepCopySession(session))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt().After(sessions[j].StartedAt())
	})
	return sessions, nil
}

// Helper function to deep copy a session aggregate.
func deepCopySession(session *scanning.Session) *scanning.Session {
	return scanning.ReconstructSession(
		session.ID(),
		session.Device(),
		session.Source(),
		session.ColorMode(),
		session.Format(),
		session.ResolutionDPI(),
		session.Phase(),
		session.PagesLoaded(),
		session.FailureReason(),
		scanning.ReconstructTimeline(
			session.StartedAt(),
			session.CompletedAt(),
			session.LastUpdate(),
		),
	)
}
