package ident

import "strings"

// Proto identifies the transport protocol used to reach a scanning device.
type Proto int

const (
	// ProtoUnknown is the sentinel for names that resolve to no protocol.
	ProtoUnknown Proto = iota - 1

	// ProtoESCL is the eSCL protocol (AirScan/Mopria).
	ProtoESCL
	// ProtoWSD is the WSD protocol (Microsoft WS-Scan).
	ProtoWSD
)

var protoNames = table[Proto]{
	{ProtoESCL, "eSCL"},
	{ProtoWSD, "WSD"},
}

// String returns the protocol's canonical name, or "" for unknown values.
func (p Proto) String() string { return protoNames.nameByID(p) }

// ParseProto resolves a protocol name, accepting any casing. Unknown names
// yield ProtoUnknown.
func ParseProto(s string) Proto { return protoNames.idByName(s, strings.EqualFold) }

// Protos lists the known protocols in table order.
func Protos() []Proto { return protoNames.ids() }
