package ident

import "strings"

// ColorMode identifies how a device renders pixels for a scan.
type ColorMode int

const (
	// ColorModeUnknown is the sentinel for names that resolve to no mode.
	ColorModeUnknown ColorMode = iota - 1

	// ColorModeHalftone is 1-bit black and white, dithered.
	ColorModeHalftone
	// ColorModeGray is 8-bit grayscale.
	ColorModeGray
	// ColorModeColor is 24-bit RGB.
	ColorModeColor
)

var colorModeNames = table[ColorMode]{
	{ColorModeHalftone, "Halftone"},
	{ColorModeGray, "Gray"},
	{ColorModeColor, "Color"},
}

// String returns the mode's canonical name, or "" for unknown values.
func (m ColorMode) String() string { return colorModeNames.nameByID(m) }

// ParseColorMode resolves a color-mode name, accepting any casing. Unknown
// names yield ColorModeUnknown.
func ParseColorMode(s string) ColorMode { return colorModeNames.idByName(s, strings.EqualFold) }

// ColorModes lists the known color modes in table order.
func ColorModes() []ColorMode { return colorModeNames.ids() }
