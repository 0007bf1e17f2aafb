package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "api_gateway"

// APIMetrics defines the metrics operations the API gateway records.
type APIMetrics interface {
	// IncRequestsTotal counts a finished HTTP request.
	IncRequestsTotal(ctx context.Context, method, path string, status int)

	// ObserveRequestDuration records how long an HTTP request took.
	ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration)

	// IncVocabLookups counts a vocabulary name resolution, split by domain
	// and whether the name resolved.
	IncVocabLookups(ctx context.Context, domain string, hit bool)

	// IncSessionRequests counts a session start request.
	IncSessionRequests(ctx context.Context)

	// IncSessionRequestErrors counts a rejected session start request.
	IncSessionRequestErrors(ctx context.Context, reason string)
}

type apiMetrics struct {
	requestsTotal        metric.Int64Counter
	requestDuration      metric.Float64Histogram
	vocabLookups         metric.Int64Counter
	sessionRequestsTotal metric.Int64Counter
	sessionRequestErrors metric.Int64Counter
}

// NewAPIMetrics creates the gateway's API instruments on the given provider.
func NewAPIMetrics(mp metric.MeterProvider) (*apiMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(apiMetrics)
	var err error

	if m.requestsTotal, err = meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	); err != nil {
		return nil, err
	}

	if m.vocabLookups, err = meter.Int64Counter(
		"vocab_lookups_total",
		metric.WithDescription("Total number of vocabulary name resolutions"),
	); err != nil {
		return nil, err
	}

	if m.sessionRequestsTotal, err = meter.Int64Counter(
		"session_requests_total",
		metric.WithDescription("Total number of session start requests"),
	); err != nil {
		return nil, err
	}

	if m.sessionRequestErrors, err = meter.Int64Counter(
		"session_request_errors_total",
		metric.WithDescription("Total number of rejected session start requests"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *apiMetrics) IncRequestsTotal(ctx context.Context, method, path string, status int) {
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func (m *apiMetrics) ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration) {
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))
}

func (m *apiMetrics) IncVocabLookups(ctx context.Context, domain string, hit bool) {
	m.vocabLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.Bool("hit", hit),
	))
}

func (m *apiMetrics) IncSessionRequests(ctx context.Context) {
	m.sessionRequestsTotal.Add(ctx, 1)
}

func (m *apiMetrics) IncSessionRequestErrors(ctx context.Context, reason string) {
	m.sessionRequestErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
