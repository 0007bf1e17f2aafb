// Package scanning models scan sessions: who is scanning, on which device,
// with which vocabulary identifiers, and where the session sits in the
// device protocol state machine.
package scanning

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// Session domain errors.
var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFinished is returned when a mutation targets a session whose
	// protocol has already finished.
	ErrSessionFinished = errors.New("session already finished")

	// ErrPageOutsideLoad is returned when a page is recorded while the
	// session is not in the load phase.
	ErrPageOutsideLoad = errors.New("page recorded outside load phase")
)

// Session is the aggregate root for one scan: a device, the requested
// vocabulary identifiers, and the current protocol phase. All phase changes
// go through AdvanceTo so the protocol ordering holds.
type Session struct {
	id            uuid.UUID
	device        string
	source        ident.Source
	colorMode     ident.ColorMode
	format        ident.Format
	resolutionDPI int

	phase         ident.ProtoOp
	pagesLoaded   int
	failureReason string

	timeline *Timeline
}

// NewSession creates a session for the given device and request
// identifiers. The identifiers must already be resolved; unknown sentinels
// are rejected here rather than deep in the protocol driver.
func NewSession(device string, source ident.Source, colorMode ident.ColorMode, format ident.Format, resolutionDPI int) (*Session, error) {
	if device == "" {
		return nil, errors.New("device name is required")
	}
	if source.String() == "" {
		return nil, fmt.Errorf("unknown source id %d", int(source))
	}
	if colorMode.String() == "" {
		return nil, fmt.Errorf("unknown color mode id %d", int(colorMode))
	}
	if format.MIMEName() == "" {
		return nil, fmt.Errorf("unknown format id %d", int(format))
	}
	if resolutionDPI <= 0 {
		return nil, fmt.Errorf("invalid resolution %d dpi", resolutionDPI)
	}

	return &Session{
		id:            uuid.New(),
		device:        device,
		source:        source,
		colorMode:     colorMode,
		format:        format,
		resolutionDPI: resolutionDPI,
		phase:         ident.ProtoOpNone,
		timeline:      NewTimeline(new(realTimeProvider)),
	}, nil
}

// ReconstructSession rebuilds a session from storage without running the
// constructor validation or phase rules.
func ReconstructSession(
	id uuid.UUID,
	device string,
	source ident.Source,
	colorMode ident.ColorMode,
	format ident.Format,
	resolutionDPI int,
	phase ident.ProtoOp,
	pagesLoaded int,
	failureReason string,
	timeline *Timeline,
) *Session {
	return &Session{
		id:            id,
		device:        device,
		source:        source,
		colorMode:     colorMode,
		format:        format,
		resolutionDPI: resolutionDPI,
		phase:         phase,
		pagesLoaded:   pagesLoaded,
		failureReason: failureReason,
		timeline:      timeline,
	}
}

// ID returns the unique identifier for this session.
func (s *Session) ID() uuid.UUID { return s.id }

// Device returns the name of the device this session scans on.
func (s *Session) Device() string { return s.device }

// Source returns the requested input source.
func (s *Session) Source() ident.Source { return s.source }

// ColorMode returns the requested color mode.
func (s *Session) ColorMode() ident.ColorMode { return s.colorMode }

// Format returns the requested image format.
func (s *Session) Format() ident.Format { return s.format }

// ResolutionDPI returns the requested scan resolution.
func (s *Session) ResolutionDPI() int { return s.resolutionDPI }

// Phase returns the protocol phase the session is currently in.
func (s *Session) Phase() ident.ProtoOp { return s.phase }

// PagesLoaded returns how many pages have been retrieved so far.
func (s *Session) PagesLoaded() int { return s.pagesLoaded }

// FailureReason returns why the session failed, or "" while it is healthy.
func (s *Session) FailureReason() string { return s.failureReason }

// StartedAt returns the time the session was created.
func (s *Session) StartedAt() time.Time { return s.timeline.StartedAt() }

// CompletedAt returns the time the session finished, or the zero time.
func (s *Session) CompletedAt() time.Time { return s.timeline.CompletedAt() }

// LastUpdate returns the time of the most recent phase change or page.
func (s *Session) LastUpdate() time.Time { return s.timeline.LastUpdate() }

// Timeline returns the session's timeline.
func (s *Session) Timeline() *Timeline { return s.timeline }

// IsFinished reports whether the protocol has released the device.
func (s *Session) IsFinished() bool { return s.phase == ident.ProtoOpFinish }

// IsFailed reports whether the session carries a failure reason.
func (s *Session) IsFailed() bool { return s.failureReason != "" }

// AdvanceTo moves the session to the target protocol phase, rejecting
// transitions the device protocol does not allow. Entering the finish phase
// marks the session completed.
func (s *Session) AdvanceTo(target ident.ProtoOp) error {
	if err := validatePhaseTransition(s.phase, target); err != nil {
		return err
	}

	s.phase = target
	if target == ident.ProtoOpFinish {
		s.timeline.MarkCompleted()
		return nil
	}
	s.timeline.UpdateLastUpdate()
	return nil
}

// RecordPage counts one retrieved page. Pages only arrive during the load
// phase; anything else indicates a driver bug.
func (s *Session) RecordPage() error {
	if s.phase != ident.ProtoOpLoad {
		return fmt.Errorf("%w: phase %s", ErrPageOutsideLoad, s.phase)
	}
	s.pagesLoaded++
	s.timeline.UpdateLastUpdate()
	return nil
}

// Fail records why the session is failing. The protocol keeps advancing
// afterwards (cleanup, finish) so the device is released; the reason
// survives those transitions.
func (s *Session) Fail(reason string) error {
	if s.IsFinished() {
		return ErrSessionFinished
	}
	if reason == "" {
		reason = "unspecified failure"
	}
	s.failureReason = reason
	s.timeline.UpdateLastUpdate()
	return nil
}
