package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "daily", slog.LevelInfo)
	l.Debug("hidden")
	l.Info("hello", "symbols", 20)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "daily", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, 20.0, entry["symbols"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestRunID_RoundTrip(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())

	ctx := WithRunID(context.Background(), id)
	assert.Equal(t, id, RunID(ctx))
	assert.Equal(t, []any{slog.String("run_id", id)}, Attrs(ctx))
}

func TestRunID_Missing(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	assert.Nil(t, Attrs(context.Background()))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "test", slog.LevelInfo))
	defer slog.SetDefault(prev)

	FromContext(WithRunID(context.Background(), "run-1")).Info("step")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
}
