package ident

// ProtoOp identifies a phase of the device protocol state machine. The
// names are log identifiers and keep their wire-constant spelling; nothing
// parses them back.
type ProtoOp int

const (
	// ProtoOpNone means no operation is in flight.
	ProtoOpNone ProtoOp = iota
	// ProtoOpPrecheck probes device state before a scan is committed.
	ProtoOpPrecheck
	// ProtoOpScan submits the scan request.
	ProtoOpScan
	// ProtoOpLoad retrieves the next page of scan data.
	ProtoOpLoad
	// ProtoOpCheck re-examines device state after a load failure.
	ProtoOpCheck
	// ProtoOpCleanup returns the device to a scannable state.
	ProtoOpCleanup
	// ProtoOpFinish releases the device.
	ProtoOpFinish
)

var protoOpNames = table[ProtoOp]{
	{ProtoOpNone, "PROTO_OP_NONE"},
	{ProtoOpPrecheck, "PROTO_OP_PRECHECK"},
	{ProtoOpScan, "PROTO_OP_SCAN"},
	{ProtoOpLoad, "PROTO_OP_LOAD"},
	{ProtoOpCheck, "PROTO_OP_CHECK"},
	{ProtoOpCleanup, "PROTO_OP_CLEANUP"},
	{ProtoOpFinish, "PROTO_OP_FINISH"},
}

// String returns the phase's log name, or "" for out-of-range values.
func (op ProtoOp) String() string { return protoOpNames.nameByID(op) }

// ProtoOps lists the protocol phases in table order.
func ProtoOps() []ProtoOp { return protoOpNames.ids() }
