package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJustificationX_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		justification JustificationX
		expected      string
	}{
		{name: "left", justification: JustificationXLeft, expected: "left"},
		{name: "center", justification: JustificationXCenter, expected: "center"},
		{name: "right", justification: JustificationXRight, expected: "right"},
		{name: "none is a first-class member", justification: JustificationXNone, expected: "none"},
		{name: "unknown sentinel has no name", justification: JustificationXUnknown, expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.justification.String())
		})
	}
}

func TestParseJustificationX(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected JustificationX
	}{
		{name: "left", input: "left", expected: JustificationXLeft},
		{name: "uppercase center", input: "CENTER", expected: JustificationXCenter},
		{name: "mixed case right", input: "Right", expected: JustificationXRight},
		{name: "none resolves like any other member", input: "None", expected: JustificationXNone},
		{name: "unknown name", input: "top", expected: JustificationXUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseJustificationX(tt.input))
		})
	}
}

func TestJustificationX_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, j := range Justifications() {
		j := j
		t.Run(j.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, j, ParseJustificationX(j.String()))
		})
	}
}
