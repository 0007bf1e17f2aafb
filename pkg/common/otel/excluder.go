package otel

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// endpointExcluder drops spans for a fixed set of routes (health probes,
// metrics scrapes) and samples everything else at the configured ratio.
type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability float64
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: probability,
	}
}

// ShouldSample implements the sampler interface. A span whose http.target
// attribute names an excluded route is dropped outright.
func (ee endpointExcluder) ShouldSample(params sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for i := range params.Attributes {
		if params.Attributes[i].Key == "http.target" {
			if _, exists := ee.endpoints[params.Attributes[i].Value.AsString()]; exists {
				return sdktrace.SamplingResult{Decision: sdktrace.Drop}
			}
		}
	}

	return sdktrace.TraceIDRatioBased(ee.probability).ShouldSample(params)
}

// Description implements the sampler interface.
func (endpointExcluder) Description() string {
	return "endpointExcluder"
}
