package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProto_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		proto    Proto
		expected string
	}{
		{name: "escl", proto: ProtoESCL, expected: "eSCL"},
		{name: "wsd", proto: ProtoWSD, expected: "WSD"},
		{name: "unknown sentinel has no name", proto: ProtoUnknown, expected: ""},
		{name: "out of range has no name", proto: Proto(42), expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.proto.String())
		})
	}
}

func TestParseProto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected Proto
	}{
		{name: "canonical escl", input: "eSCL", expected: ProtoESCL},
		{name: "lowercase escl", input: "escl", expected: ProtoESCL},
		{name: "uppercase escl", input: "ESCL", expected: ProtoESCL},
		{name: "canonical wsd", input: "WSD", expected: ProtoWSD},
		{name: "mixed case wsd", input: "wSd", expected: ProtoWSD},
		{name: "unknown name", input: "ipp", expected: ProtoUnknown},
		{name: "empty name", input: "", expected: ProtoUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseProto(tt.input))
		})
	}
}

func TestProto_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, p := range Protos() {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, p, ParseProto(p.String()))
		})
	}
}
