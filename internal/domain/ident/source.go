package ident

import "strings"

// Source identifies the document input path on a device.
type Source int

const (
	// SourceUnknown is the sentinel for names that resolve to no source.
	SourceUnknown Source = iota - 1

	// SourceFlatbed is the platen glass.
	SourceFlatbed
	// SourceADF is the automatic document feeder, simplex path.
	SourceADF
	// SourceADFDuplex is the automatic document feeder, duplex path.
	SourceADFDuplex
)

var sourceNames = table[Source]{
	{SourceFlatbed, "Flatbed"},
	{SourceADF, "ADF"},
	{SourceADFDuplex, "ADF Duplex"},
}

// String returns the source's canonical name, or "" for unknown values.
func (s Source) String() string { return sourceNames.nameByID(s) }

// ParseSource resolves a source name, accepting any casing. Unknown names
// yield SourceUnknown.
func ParseSource(s string) Source { return sourceNames.idByName(s, strings.EqualFold) }

// Sources lists the known sources in table order.
func Sources() []Source { return sourceNames.ids() }
