package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorMode_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mode     ColorMode
		expected string
	}{
		{name: "halftone", mode: ColorModeHalftone, expected: "Halftone"},
		{name: "gray", mode: ColorModeGray, expected: "Gray"},
		{name: "color", mode: ColorModeColor, expected: "Color"},
		{name: "unknown sentinel has no name", mode: ColorModeUnknown, expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.mode.String())
		})
	}
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected ColorMode
	}{
		{name: "canonical gray", input: "Gray", expected: ColorModeGray},
		{name: "lowercase gray", input: "gray", expected: ColorModeGray},
		{name: "uppercase color", input: "COLOR", expected: ColorModeColor},
		{name: "mixed case halftone", input: "hAlFtOnE", expected: ColorModeHalftone},
		{name: "british grey does not match", input: "grey", expected: ColorModeUnknown},
		{name: "unknown name", input: "lineart", expected: ColorModeUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseColorMode(tt.input))
		})
	}
}

func TestColorMode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, m := range ColorModes() {
		m := m
		t.Run(m.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, m, ParseColorMode(m.String()))
		})
	}
}
