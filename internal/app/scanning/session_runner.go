package scanning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/scanbridge/internal/domain/events"
	"github.com/ahrav/scanbridge/internal/domain/ident"
	domain "github.com/ahrav/scanbridge/internal/domain/scanning"
	"github.com/ahrav/scanbridge/pkg/common/logger"
)

const (
	// probeInitialInterval is the first wait between probe retries when the
	// device reports busy.
	probeInitialInterval = 250 * time.Millisecond

	// probeMaxElapsedTime bounds how long a session waits for a busy device
	// before failing.
	probeMaxElapsedTime = 30 * time.Second

	// maxLoadRecoveries bounds how many load-check-load detours a session
	// attempts before giving up on the device.
	maxLoadRecoveries = 3
)

// SessionRunner drives admitted sessions through the device protocol. It
// reacts to SessionStarted events, executes each phase against the device
// driver, and records progress on the session aggregate, so every phase
// ordering rule is enforced in exactly one place.
type SessionRunner struct {
	gatewayID string

	driver    domain.DeviceDriver
	repo      domain.SessionRepository
	publisher events.DomainEventPublisher

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics SessionMetrics

	wg sync.WaitGroup
}

// NewSessionRunner returns a SessionRunner with the dependencies needed to
// execute the device protocol for admitted sessions.
func NewSessionRunner(
	gatewayID string,
	driver domain.DeviceDriver,
	repo domain.SessionRepository,
	publisher events.DomainEventPublisher,
	logger *logger.Logger,
	tracer trace.Tracer,
	metrics SessionMetrics,
) *SessionRunner {
	logger = logger.With("component", "session_runner")
	return &SessionRunner{
		gatewayID: gatewayID,
		driver:    driver,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
	}
}

// Run subscribes the runner to session lifecycle events on the bus. Each
// admitted session is driven on its own goroutine bound to ctx, so a
// synchronous bus never runs a whole scan inside the publisher's call.
func (r *SessionRunner) Run(ctx context.Context, bus events.EventBus) error {
	return bus.Subscribe(ctx, []events.EventType{domain.EventTypeSessionStarted},
		func(_ context.Context, envelope events.EventEnvelope) error {
			evt, ok := envelope.Payload.(domain.SessionStartedEvent)
			if !ok {
				return fmt.Errorf("unexpected payload type %T for %s event", envelope.Payload, envelope.Type)
			}

			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.driveSession(ctx, evt.SessionID())
			}()
			return nil
		})
}

// Wait blocks until every in-flight session drive has returned. Callers use
// it to drain the runner during shutdown.
func (r *SessionRunner) Wait() { r.wg.Wait() }

// driveSession executes the full device protocol for one session.
func (r *SessionRunner) driveSession(ctx context.Context, sessionID uuid.UUID) {
	logger := r.logger.With("operation", "drive_session", "session_id", sessionID)
	ctx, span := r.tracer.Start(ctx, "session_runner.drive_session",
		trace.WithAttributes(
			attribute.String("gateway_id", r.gatewayID),
			attribute.String("session_id", sessionID.String()),
		),
	)
	defer span.End()

	session, err := r.repo.GetSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load session")
		logger.Error(ctx, "Failed to load session for protocol drive", "error", err)
		return
	}

	logger = logger.With("device", session.Device())
	span.SetAttributes(attribute.String("device", session.Device()))
	r.metrics.IncSessionsStarted(ctx, session.Device())
	logger.Debug(ctx, "Driving session")

	err = r.metrics.TrackSession(ctx, func() error {
		return r.runProtocol(ctx, session)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session failed")
		r.failSession(ctx, session, err)
		return
	}

	span.SetStatus(codes.Ok, "session completed")
	r.completeSession(ctx, session)
}

// runProtocol walks the happy path: precheck, scan, load until drained,
// finish. Any error aborts the walk; the caller winds the session down.
func (r *SessionRunner) runProtocol(ctx context.Context, session *domain.Session) error {
	// Precheck: verify the device is reachable and idle, waiting out a
	// busy device with exponential backoff.
	if err := r.advance(ctx, session, ident.ProtoOpPrecheck); err != nil {
		return err
	}
	if err := r.probeDevice(ctx, session); err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	// Scan: submit the request to the device.
	if err := r.advance(ctx, session, ident.ProtoOpScan); err != nil {
		return err
	}
	req := domain.ScanRequest{
		SessionID:     session.ID(),
		Device:        session.Device(),
		Source:        session.Source(),
		ColorMode:     session.ColorMode(),
		Format:        session.Format(),
		ResolutionDPI: session.ResolutionDPI(),
	}
	if err := r.driver.StartScan(ctx, req); err != nil {
		return fmt.Errorf("start scan failed: %w", err)
	}

	// Load: retrieve pages until the device reports it is drained.
	if err := r.advance(ctx, session, ident.ProtoOpLoad); err != nil {
		return err
	}
	if err := r.loadPages(ctx, session); err != nil {
		return err
	}

	// Finish: release the device.
	if err := r.advance(ctx, session, ident.ProtoOpFinish); err != nil {
		return err
	}
	if err := r.driver.Finish(ctx, session.ID()); err != nil {
		// All pages are already delivered; the session still completes.
		r.logger.Warn(ctx, "Device finish failed after load",
			"session_id", session.ID(), "device", session.Device(), "error", err)
	}
	return nil
}

// probeDevice retries the probe while the device reports busy. Any other
// error is permanent and aborts immediately.
func (r *SessionRunner) probeDevice(ctx context.Context, session *domain.Session) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = probeInitialInterval
	expBackoff.MaxElapsedTime = probeMaxElapsedTime

	operation := func() error {
		err := r.driver.Probe(ctx, session.Device())
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrDeviceBusy) {
			r.metrics.IncDeviceBusyRetries(ctx, session.Device())
			r.logger.Debug(ctx, "Device busy, retrying probe",
				"session_id", session.ID(), "device", session.Device())
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
}

// loadPages pulls pages off the device until it reports done. A failed load
// triggers the check detour; repeated failures abort the session.
func (r *SessionRunner) loadPages(ctx context.Context, session *domain.Session) error {
	recoveries := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageBytes, done, err := r.driver.LoadPage(ctx, session.ID())
		if err != nil {
			recoveries++
			if recoveries > maxLoadRecoveries {
				return fmt.Errorf("load failed after %d recovery attempts: %w", maxLoadRecoveries, err)
			}
			if err := r.recoverLoad(ctx, session); err != nil {
				return err
			}
			continue
		}
		if done {
			return nil
		}

		if err := session.RecordPage(); err != nil {
			return err
		}
		r.metrics.ObservePageBytes(ctx, session.Device(), pageBytes)
		if err := r.repo.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to persist page progress: %w", err)
		}
	}
}

// recoverLoad runs the check detour after a failed page load: re-read
// device state, and if the device recovered, resume loading.
func (r *SessionRunner) recoverLoad(ctx context.Context, session *domain.Session) error {
	if err := r.advance(ctx, session, ident.ProtoOpCheck); err != nil {
		return err
	}
	if err := r.driver.Check(ctx, session.ID()); err != nil {
		return fmt.Errorf("device check failed: %w", err)
	}
	return r.advance(ctx, session, ident.ProtoOpLoad)
}

// advance moves the session to the target phase, persists it, and publishes
// the transition.
func (r *SessionRunner) advance(ctx context.Context, session *domain.Session, target ident.ProtoOp) error {
	from := session.Phase()
	if err := session.AdvanceTo(target); err != nil {
		return err
	}
	if err := r.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist phase %s: %w", target, err)
	}
	r.metrics.IncPhaseTransitions(ctx, session.Device(), target.String())

	evt := domain.NewSessionPhaseChangedEvent(session.ID(), from, target)
	if err := r.publisher.PublishDomainEvent(ctx, evt, events.WithKey(session.ID().String())); err != nil {
		return fmt.Errorf("failed to publish phase change to %s: %w", target, err)
	}
	return nil
}

// failSession records the failure and winds the protocol down so the device
// is released. The wind-down runs without the session's cancelation so a
// shutdown mid-scan still frees the device.
func (r *SessionRunner) failSession(ctx context.Context, session *domain.Session, cause error) {
	ctx = context.WithoutCancel(ctx)
	logger := r.logger.With("operation", "fail_session",
		"session_id", session.ID(), "device", session.Device())
	failedPhase := session.Phase()

	if err := session.Fail(cause.Error()); err != nil {
		logger.Error(ctx, "Failed to record session failure", "error", err)
		return
	}
	if err := r.repo.UpdateSession(ctx, session); err != nil {
		logger.Error(ctx, "Failed to persist session failure", "error", err)
	}

	// A session that never entered the protocol has no device state to
	// release; it is failed in place.
	if failedPhase != ident.ProtoOpNone {
		if err := r.advance(ctx, session, ident.ProtoOpCleanup); err != nil {
			logger.Error(ctx, "Failed to enter cleanup phase", "error", err)
		} else if err := r.driver.Cleanup(ctx, session.ID()); err != nil {
			logger.Warn(ctx, "Device cleanup failed", "error", err)
		}

		if err := r.advance(ctx, session, ident.ProtoOpFinish); err != nil {
			logger.Error(ctx, "Failed to enter finish phase", "error", err)
		} else if err := r.driver.Finish(ctx, session.ID()); err != nil {
			logger.Warn(ctx, "Device finish failed", "error", err)
		}
	}

	r.metrics.IncSessionsFailed(ctx, session.Device())

	evt := domain.NewSessionFailedEvent(session.ID(), session.Device(), failedPhase, cause.Error())
	if err := r.publisher.PublishDomainEvent(ctx, evt, events.WithKey(session.ID().String())); err != nil {
		logger.Error(ctx, "Failed to publish session failed event", "error", err)
	}
	logger.Error(ctx, "Session failed", "phase", failedPhase, "error", cause)
}

// completeSession publishes the completion and records final metrics.
func (r *SessionRunner) completeSession(ctx context.Context, session *domain.Session) {
	logger := r.logger.With("operation", "complete_session",
		"session_id", session.ID(), "device", session.Device())

	elapsed := session.CompletedAt().Sub(session.StartedAt())
	r.metrics.IncSessionsCompleted(ctx, session.Device())
	r.metrics.ObservePagesLoaded(ctx, session.Device(), session.PagesLoaded())

	evt := domain.NewSessionCompletedEvent(session.ID(), session.Device(), session.PagesLoaded(), elapsed)
	if err := r.publisher.PublishDomainEvent(ctx, evt, events.WithKey(session.ID().String())); err != nil {
		logger.Error(ctx, "Failed to publish session completed event", "error", err)
	}
	logger.Info(ctx, "Session completed",
		"pages_loaded", session.PagesLoaded(), "elapsed", elapsed)
}
