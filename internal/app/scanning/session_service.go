package scanning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/scanbridge/internal/domain/events"
	domain "github.com/ahrav/scanbridge/internal/domain/scanning"
	"github.com/ahrav/scanbridge/pkg/common/logger"
)

var _ domain.SessionService = (*sessionService)(nil)

// sessionService admits scan sessions against the device registry, persists
// them, and announces them through domain events. By publishing rather than
// driving the device protocol itself, it lets the runner react to new
// sessions on its own lifecycle.
type sessionService struct {
	gatewayID string

	registry  *DeviceRegistry
	repo      domain.SessionRepository
	publisher events.DomainEventPublisher

	logger *logger.Logger
	tracer trace.Tracer
}

// NewSessionService returns a sessionService with the dependencies needed to
// admit sessions and notify subscribers about them.
func NewSessionService(
	gatewayID string,
	registry *DeviceRegistry,
	repo domain.SessionRepository,
	publisher events.DomainEventPublisher,
	logger *logger.Logger,
	tracer trace.Tracer,
) *sessionService {
	logger = logger.With("component", "session_service")
	return &sessionService{
		gatewayID: gatewayID,
		registry:  registry,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
	}
}

// StartSession validates the command against the device's advertised
// capabilities, persists the new session, and publishes SessionStarted.
func (s *sessionService) StartSession(ctx context.Context, cmd domain.StartSessionCommand) (*domain.Session, error) {
	logger := s.logger.With("operation", "start_session", "device", cmd.Device)
	ctx, span := s.tracer.Start(ctx, "session_service.start_session",
		trace.WithAttributes(
			attribute.String("gateway_id", s.gatewayID),
			attribute.String("device", cmd.Device),
			attribute.String("source", cmd.Source.String()),
			attribute.String("color_mode", cmd.ColorMode.String()),
			attribute.String("format", cmd.Format.MIMEName()),
			attribute.Int("resolution_dpi", cmd.ResolutionDPI),
		),
	)
	defer span.End()
	logger.Debug(ctx, "Starting session")

	profile, err := s.registry.Get(cmd.Device)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown device")
		return nil, err
	}
	span.AddEvent("device_resolved")

	if err := profile.ValidateRequest(cmd.Source, cmd.ColorMode, cmd.Format); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capability not supported")
		return nil, err
	}
	if !profile.SupportsResolution(cmd.ResolutionDPI) {
		minDPI, maxDPI := profile.ResolutionRange()
		err := fmt.Errorf("%w: device %q supports %d-%d dpi, requested %d",
			domain.ErrCapabilityUnsupported, profile.Name(), minDPI, maxDPI, cmd.ResolutionDPI)
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution not supported")
		return nil, err
	}
	span.AddEvent("capabilities_validated")

	session, err := domain.NewSession(cmd.Device, cmd.Source, cmd.ColorMode, cmd.Format, cmd.ResolutionDPI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist session")
		return nil, fmt.Errorf("failed to persist session (session_id: %s): %w", session.ID(), err)
	}
	span.AddEvent("session_persisted", trace.WithAttributes(
		attribute.String("session_id", session.ID().String()),
	))

	evt := domain.NewSessionStartedEvent(session.ID(), cmd.Device, cmd.Source, cmd.ColorMode, cmd.Format)
	if err := s.publisher.PublishDomainEvent(ctx, evt, events.WithKey(session.ID().String())); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish session started event")
		return nil, fmt.Errorf("failed to publish session started event (session_id: %s): %w", session.ID(), err)
	}
	span.AddEvent("session_started_event_published")
	span.SetStatus(codes.Ok, "session started")
	logger.Info(ctx, "Session started", "session_id", session.ID())

	return session, nil
}

// GetSession retrieves a session's current state.
func (s *sessionService) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session_service.get_session",
		trace.WithAttributes(attribute.String("session_id", id.String())),
	)
	defer span.End()

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get session")
		return nil, err
	}
	span.SetStatus(codes.Ok, "session retrieved")
	return session, nil
}

// ListSessions retrieves all sessions, most recently started first.
func (s *sessionService) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session_service.list_sessions")
	defer span.End()

	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list sessions")
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	span.SetStatus(codes.Ok, "sessions listed")
	span.SetAttributes(attribute.Int("session_count", len(sessions)))
	return sessions, nil
}

// ListDevices returns the device profiles the gateway serves.
func (s *sessionService) ListDevices(ctx context.Context) ([]*domain.DeviceProfile, error) {
	_, span := s.tracer.Start(ctx, "session_service.list_devices")
	defer span.End()

	devices := s.registry.List()
	span.SetStatus(codes.Ok, "devices listed")
	span.SetAttributes(attribute.Int("device_count", len(devices)))
	return devices, nil
}
