package scanning

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SessionMetrics defines metrics operations needed by the session runner.
type SessionMetrics interface {
	// Session lifecycle metrics
	IncSessionsStarted(ctx context.Context, device string)
	IncSessionsCompleted(ctx context.Context, device string)
	IncSessionsFailed(ctx context.Context, device string)
	TrackSession(ctx context.Context, f func() error) error

	// Protocol metrics
	IncPhaseTransitions(ctx context.Context, device string, phase string)
	IncDeviceBusyRetries(ctx context.Context, device string)

	// Page metrics
	ObservePagesLoaded(ctx context.Context, device string, count int)
	ObservePageBytes(ctx context.Context, device string, sizeBytes int64)
}

// sessionMetrics implements SessionMetrics.
type sessionMetrics struct {
	// Session lifecycle metrics
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionsFailed    metric.Int64Counter
	activeSessions    metric.Int64UpDownCounter
	sessionDuration   metric.Float64Histogram

	// Protocol metrics
	phaseTransitions  metric.Int64Counter
	deviceBusyRetries metric.Int64Counter

	// Page metrics
	pagesPerSession metric.Int64Histogram
	pageBytes       metric.Int64Histogram
}

const namespace = "scan_session"

// NewSessionMetrics creates a new session metrics instance.
func NewSessionMetrics(mp metric.MeterProvider) (*sessionMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	s := new(sessionMetrics)
	var err error

	if s.sessionsStarted, err = meter.Int64Counter(
		"sessions_started_total",
		metric.WithDescription("Total number of scan sessions started"),
	); err != nil {
		return nil, err
	}

	if s.sessionsCompleted, err = meter.Int64Counter(
		"sessions_completed_total",
		metric.WithDescription("Total number of scan sessions completed successfully"),
	); err != nil {
		return nil, err
	}

	if s.sessionsFailed, err = meter.Int64Counter(
		"sessions_failed_total",
		metric.WithDescription("Total number of scan sessions that ended with a failure"),
	); err != nil {
		return nil, err
	}

	if s.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of scan sessions currently being driven"),
	); err != nil {
		return nil, err
	}

	if s.sessionDuration, err = meter.Float64Histogram(
		"session_duration_seconds",
		metric.WithDescription("Time taken to drive each scan session"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if s.phaseTransitions, err = meter.Int64Counter(
		"phase_transitions_total",
		metric.WithDescription("Total number of protocol phase transitions"),
	); err != nil {
		return nil, err
	}

	if s.deviceBusyRetries, err = meter.Int64Counter(
		"device_busy_retries_total",
		metric.WithDescription("Total number of probe retries caused by busy devices"),
	); err != nil {
		return nil, err
	}

	if s.pagesPerSession, err = meter.Int64Histogram(
		"pages_per_session",
		metric.WithDescription("Number of pages delivered per scan session"),
	); err != nil {
		return nil, err
	}

	if s.pageBytes, err = meter.Int64Histogram(
		"page_size_bytes",
		metric.WithDescription("Size of delivered pages in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	return s, nil
}

const deviceKey = "device"

// Session lifecycle metrics implementations
func (m *sessionMetrics) IncSessionsStarted(ctx context.Context, device string) {
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String(deviceKey, device)))
}

func (m *sessionMetrics) IncSessionsCompleted(ctx context.Context, device string) {
	m.sessionsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String(deviceKey, device)))
}

func (m *sessionMetrics) IncSessionsFailed(ctx context.Context, device string) {
	m.sessionsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String(deviceKey, device)))
}

func (m *sessionMetrics) TrackSession(ctx context.Context, f func() error) error {
	m.activeSessions.Add(ctx, 1)
	defer m.activeSessions.Add(ctx, -1)

	start := time.Now()
	err := f()
	m.sessionDuration.Record(ctx, time.Since(start).Seconds())
	return err
}

// Protocol metrics implementations
func (m *sessionMetrics) IncPhaseTransitions(ctx context.Context, device string, phase string) {
	m.phaseTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(deviceKey, device),
		attribute.String("phase", phase),
	))
}

func (m *sessionMetrics) IncDeviceBusyRetries(ctx context.Context, device string) {
	m.deviceBusyRetries.Add(ctx, 1, metric.WithAttributes(attribute.String(deviceKey, device)))
}

// Page metrics implementations
func (m *sessionMetrics) ObservePagesLoaded(ctx context.Context, device string, count int) {
	m.pagesPerSession.Record(ctx, int64(count), metric.WithAttributes(attribute.String(deviceKey, device)))
}

func (m *sessionMetrics) ObservePageBytes(ctx context.Context, device string, sizeBytes int64) {
	m.pageBytes.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String(deviceKey, device)))
}
