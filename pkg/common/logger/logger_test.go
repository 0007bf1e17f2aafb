package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test-service", nil)

	log.Info(context.Background(), "session started", "session_id", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "test-service", rec["service"])
	assert.Equal(t, "session started", rec["msg"])
	assert.Equal(t, "abc", rec["session_id"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestLogger_MinLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test-service", nil)

	log.Debug(context.Background(), "below min level")

	assert.Zero(t, buf.Len())
}

func TestLogger_ErrorEvent(t *testing.T) {
	t.Parallel()

	var got Record
	events := Events{
		Error: func(_ context.Context, r Record) { got = r },
	}

	log := NewWithEvents(io.Discard, LevelDebug, "test-service", nil, events)
	log.Error(context.Background(), "device unreachable", "device", "front-desk")

	assert.Equal(t, "device unreachable", got.Message)
	assert.Equal(t, LevelError, got.Level)
	assert.Equal(t, "front-desk", got.Attributes["device"])
}

func TestLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test-service", nil).With("component", "session_service")

	log.Info(context.Background(), "ready")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "session_service", rec["component"])
}

func TestLogger_TraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	traceIDFn := func(context.Context) string { return "deadbeef" }
	log := New(&buf, LevelInfo, "test-service", traceIDFn)

	log.Info(context.Background(), "lookup")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "deadbeef", rec["trace_id"])
}

func TestLogger_Metadata(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	metadata := map[string]string{"hostname": "gw-0"}
	log := NewWithMetadata(&buf, LevelInfo, "test-service", nil, Events{}, metadata)

	log.Info(context.Background(), "startup")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "gw-0", rec["hostname"])
	assert.Equal(t, "test-service", rec["service"])
}
