package ident

import "strings"

// JustificationX identifies how a device aligns narrow documents along the
// horizontal axis of the feeder.
type JustificationX int

const (
	// JustificationXUnknown is the sentinel for names that resolve to no
	// justification.
	JustificationXUnknown JustificationX = iota - 1

	// JustificationXLeft aligns to the left edge.
	JustificationXLeft
	// JustificationXCenter centers the document.
	JustificationXCenter
	// JustificationXRight aligns to the right edge.
	JustificationXRight
	// JustificationXNone means the device does not report a justification.
	JustificationXNone
)

var justificationXNames = table[JustificationX]{
	{JustificationXLeft, "left"},
	{JustificationXCenter, "center"},
	{JustificationXRight, "right"},
	{JustificationXNone, "none"},
}

// String returns the justification's canonical name, or "" for unknown
// values.
func (j JustificationX) String() string { return justificationXNames.nameByID(j) }

// ParseJustificationX resolves a justification name, accepting any casing.
// Unknown names yield JustificationXUnknown.
func ParseJustificationX(s string) JustificationX {
	return justificationXNames.idByName(s, strings.EqualFold)
}

// Justifications lists the known justifications in table order.
func Justifications() []JustificationX { return justificationXNames.ids() }
