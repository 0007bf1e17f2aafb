package scanning

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// Device driver errors. Drivers wrap these so callers can branch on the
// condition without knowing the protocol.
var (
	// ErrDeviceBusy is returned when the device is held by another client.
	// The condition is transient; callers retry with backoff.
	ErrDeviceBusy = errors.New("device busy")

	// ErrDeviceUnreachable is returned when the device cannot be contacted
	// at its configured endpoint.
	ErrDeviceUnreachable = errors.New("device unreachable")
)

// ScanRequest carries everything a driver needs to submit a scan: the
// session it belongs to, the target device, and the already-resolved
// vocabulary identifiers.
type ScanRequest struct {
	SessionID     uuid.UUID
	Device        string
	Source        ident.Source
	ColorMode     ident.ColorMode
	Format        ident.Format
	ResolutionDPI int
}

// DeviceDriver is the protocol port to a physical or simulated device. One
// method per protocol phase; the session service decides the ordering, the
// driver only executes single phases.
type DeviceDriver interface {
	// Probe verifies the device is reachable and idle before a scan is
	// committed.
	Probe(ctx context.Context, device string) error

	// StartScan submits the scan request to the device.
	StartScan(ctx context.Context, req ScanRequest) error

	// LoadPage retrieves the next page of scan data for the session. done
	// reports that the device has no more pages to deliver.
	LoadPage(ctx context.Context, sessionID uuid.UUID) (pageBytes int64, done bool, err error)

	// Check re-reads device state after a failed load to decide whether
	// loading can resume.
	Check(ctx context.Context, sessionID uuid.UUID) error

	// Cleanup returns the device to a scannable state after a failure.
	Cleanup(ctx context.Context, sessionID uuid.UUID) error

	// Finish releases the device and discards driver-side session state.
	Finish(ctx context.Context, sessionID uuid.UUID) error
}

// StartSessionCommand carries a fully resolved request to open a scan
// session. Name-to-identifier resolution happens at the API edge; by the
// time a command reaches the service every identifier is known-good.
type StartSessionCommand struct {
	Device        string
	Source        ident.Source
	ColorMode     ident.ColorMode
	Format        ident.Format
	ResolutionDPI int
}

// SessionService coordinates scan sessions: admission against device
// capabilities, persistence, and lifecycle event publication.
type SessionService interface {
	// StartSession validates the command against the target device's
	// profile, persists a new session, and announces it.
	StartSession(ctx context.Context, cmd StartSessionCommand) (*Session, error)

	// GetSession retrieves a session's current state.
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)

	// ListSessions retrieves all sessions, most recently started first.
	ListSessions(ctx context.Context) ([]*Session, error)

	// ListDevices returns the device profiles the gateway serves.
	ListDevices(ctx context.Context) ([]*DeviceProfile, error)
}

// SessionRepository defines the persistence operations for scan sessions.
// Implementations return ErrSessionNotFound for unknown ids.
type SessionRepository interface {
	// CreateSession persists a new session's initial state.
	CreateSession(ctx context.Context, session *Session) error

	// GetSession retrieves a session's current state.
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)

	// UpdateSession persists changes to an existing session's state.
	UpdateSession(ctx context.Context, session *Session) error

	// ListSessions retrieves all sessions, most recently started first.
	ListSessions(ctx context.Context) ([]*Session, error)
}
