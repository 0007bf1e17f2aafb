package scanning

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/events"
	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// Event types for the session lifecycle.
const (
	// EventTypeSessionStarted represents the event when a scan session is
	// accepted and bound to a device.
	EventTypeSessionStarted events.EventType = "SessionStarted"

	// EventTypeSessionPhaseChanged represents a protocol phase transition
	// within a running session.
	EventTypeSessionPhaseChanged events.EventType = "SessionPhaseChanged"

	// EventTypeSessionCompleted represents the event when a session finishes
	// with all requested pages delivered.
	EventTypeSessionCompleted events.EventType = "SessionCompleted"

	// EventTypeSessionFailed represents the event when a session ends with
	// a failure reason attached.
	EventTypeSessionFailed events.EventType = "SessionFailed"

	// EventTypeDeviceRegistered represents the event when the gateway
	// resolves a configured device profile at startup.
	EventTypeDeviceRegistered events.EventType = "DeviceRegistered"
)

// SessionStartedEvent is emitted when a session is accepted. It carries the
// resolved vocabulary identifiers so subscribers never re-parse names.
type SessionStartedEvent struct {
	sessionID  uuid.UUID
	device     string
	source     ident.Source
	colorMode  ident.ColorMode
	format     ident.Format
	occurredAt time.Time
}

// NewSessionStartedEvent creates a new session start event.
func NewSessionStartedEvent(sessionID uuid.UUID, device string, source ident.Source, colorMode ident.ColorMode, format ident.Format) SessionStartedEvent {
	return SessionStartedEvent{
		sessionID:  sessionID,
		device:     device,
		source:     source,
		colorMode:  colorMode,
		format:     format,
		occurredAt: time.Now().UTC(),
	}
}

// EventType returns the type of this event.
func (e SessionStartedEvent) EventType() events.EventType { return EventTypeSessionStarted }

// OccurredAt returns when this event occurred.
func (e SessionStartedEvent) OccurredAt() time.Time { return e.occurredAt }

// SessionID returns the id of the started session.
func (e SessionStartedEvent) SessionID() uuid.UUID { return e.sessionID }

// Device returns the name of the device the session scans on.
func (e SessionStartedEvent) Device() string { return e.device }

// Source returns the requested input source.
func (e SessionStartedEvent) Source() ident.Source { return e.source }

// ColorMode returns the requested color mode.
func (e SessionStartedEvent) ColorMode() ident.ColorMode { return e.colorMode }

// Format returns the requested image format.
func (e SessionStartedEvent) Format() ident.Format { return e.format }

// SessionPhaseChangedEvent is emitted on every protocol phase transition.
type SessionPhaseChangedEvent struct {
	sessionID  uuid.UUID
	from       ident.ProtoOp
	to         ident.ProtoOp
	occurredAt time.Time
}

// NewSessionPhaseChangedEvent creates a new phase transition event.
func NewSessionPhaseChangedEvent(sessionID uuid.UUID, from, to ident.ProtoOp) SessionPhaseChangedEvent {
	return SessionPhaseChangedEvent{
		sessionID:  sessionID,
		from:       from,
		to:         to,
		occurredAt: time.Now().UTC(),
	}
}

// EventType returns the type of this event.
func (e SessionPhaseChangedEvent) EventType() events.EventType { return EventTypeSessionPhaseChanged }

// OccurredAt returns when this event occurred.
func (e SessionPhaseChangedEvent) OccurredAt() time.Time { return e.occurredAt }

// SessionID returns the id of the session that changed phase.
func (e SessionPhaseChangedEvent) SessionID() uuid.UUID { return e.sessionID }

// From returns the phase the session left.
func (e SessionPhaseChangedEvent) From() ident.ProtoOp { return e.from }

// To returns the phase the session entered.
func (e SessionPhaseChangedEvent) To() ident.ProtoOp { return e.to }

// SessionCompletedEvent is emitted when a session finishes cleanly.
type SessionCompletedEvent struct {
	sessionID   uuid.UUID
	device      string
	pagesLoaded int
	elapsed     time.Duration
	occurredAt  time.Time
}

// NewSessionCompletedEvent creates a new session completion event.
func NewSessionCompletedEvent(sessionID uuid.UUID, device string, pagesLoaded int, elapsed time.Duration) SessionCompletedEvent {
	return SessionCompletedEvent{
		sessionID:   sessionID,
		device:      device,
		pagesLoaded: pagesLoaded,
		elapsed:     elapsed,
		occurredAt:  time.Now().UTC(),
	}
}

// EventType returns the type of this event.
func (e SessionCompletedEvent) EventType() events.EventType { return EventTypeSessionCompleted }

// OccurredAt returns when this event occurred.
func (e SessionCompletedEvent) OccurredAt() time.Time { return e.occurredAt }

// SessionID returns the id of the completed session.
func (e SessionCompletedEvent) SessionID() uuid.UUID { return e.sessionID }

// Device returns the name of the device the session scanned on.
func (e SessionCompletedEvent) Device() string { return e.device }

// PagesLoaded returns how many pages the session delivered.
func (e SessionCompletedEvent) PagesLoaded() int { return e.pagesLoaded }

// Elapsed returns how long the session ran.
func (e SessionCompletedEvent) Elapsed() time.Duration { return e.elapsed }

// SessionFailedEvent is emitted when a session ends with a failure.
type SessionFailedEvent struct {
	sessionID  uuid.UUID
	device     string
	phase      ident.ProtoOp
	reason     string
	occurredAt time.Time
}

// NewSessionFailedEvent creates a new session failure event.
func NewSessionFailedEvent(sessionID uuid.UUID, device string, phase ident.ProtoOp, reason string) SessionFailedEvent {
	return SessionFailedEvent{
		sessionID:  sessionID,
		device:     device,
		phase:      phase,
		reason:     reason,
		occurredAt: time.Now().UTC(),
	}
}

// EventType returns the type of this event.
func (e SessionFailedEvent) EventType() events.EventType { return EventTypeSessionFailed }

// OccurredAt returns when this event occurred.
func (e SessionFailedEvent) OccurredAt() time.Time { return e.occurredAt }

// SessionID returns the id of the failed session.
func (e SessionFailedEvent) SessionID() uuid.UUID { return e.sessionID }

// Device returns the name of the device the session scanned on.
func (e SessionFailedEvent) Device() string { return e.device }

// Phase returns the protocol phase the failure surfaced in.
func (e SessionFailedEvent) Phase() ident.ProtoOp { return e.phase }

// Reason returns why the session failed.
func (e SessionFailedEvent) Reason() string { return e.reason }

// DeviceRegisteredEvent is emitted for each device profile the gateway
// resolves from configuration at startup.
type DeviceRegisteredEvent struct {
	device     string
	proto      ident.Proto
	formats    []ident.Format
	occurredAt time.Time
}

// NewDeviceRegisteredEvent creates a new device registration event.
func NewDeviceRegisteredEvent(device string, proto ident.Proto, formats []ident.Format) DeviceRegisteredEvent {
	return DeviceRegisteredEvent{
		device:     device,
		proto:      proto,
		formats:    formats,
		occurredAt: time.Now().UTC(),
	}
}

// EventType returns the type of this event.
func (e DeviceRegisteredEvent) EventType() events.EventType { return EventTypeDeviceRegistered }

// OccurredAt returns when this event occurred.
func (e DeviceRegisteredEvent) OccurredAt() time.Time { return e.occurredAt }

// Device returns the registered device's name.
func (e DeviceRegisteredEvent) Device() string { return e.device }

// Proto returns the protocol the device speaks.
func (e DeviceRegisteredEvent) Proto() ident.Proto { return e.proto }

// Formats returns the formats the device advertises.
func (e DeviceRegisteredEvent) Formats() []ident.Format { return e.formats }
