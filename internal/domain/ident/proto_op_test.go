package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtoOp_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       ProtoOp
		expected string
	}{
		{name: "none", op: ProtoOpNone, expected: "PROTO_OP_NONE"},
		{name: "precheck", op: ProtoOpPrecheck, expected: "PROTO_OP_PRECHECK"},
		{name: "scan", op: ProtoOpScan, expected: "PROTO_OP_SCAN"},
		{name: "load", op: ProtoOpLoad, expected: "PROTO_OP_LOAD"},
		{name: "check", op: ProtoOpCheck, expected: "PROTO_OP_CHECK"},
		{name: "cleanup", op: ProtoOpCleanup, expected: "PROTO_OP_CLEANUP"},
		{name: "finish", op: ProtoOpFinish, expected: "PROTO_OP_FINISH"},
		{name: "out of range has no name", op: ProtoOp(99), expected: ""},
		{name: "negative has no name", op: ProtoOp(-1), expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.op.String())
		})
	}
}

func TestProtoOps_Order(t *testing.T) {
	t.Parallel()

	ops := ProtoOps()
	assert.Len(t, ops, 7)
	assert.Equal(t, ProtoOpNone, ops[0])
	assert.Equal(t, ProtoOpFinish, ops[len(ops)-1])
}
