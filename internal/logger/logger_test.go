package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Info("dump finished")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "dump finished", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.With().
		Str("schema", "gpt").
		Int("statements", 12).
		Logger().
		Info("extracted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gpt", entry["schema"])
	assert.Equal(t, float64(12), entry["statements"])
}

func TestLogger_ErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "error", Format: "json", Output: buf})

	logger.ErrorWith("fetch failed", errors.New("permission denied for pg_proc"), map[string]interface{}{
		"kind": "functions",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "permission denied for pg_proc", entry["error"])
	assert.Equal(t, "functions", entry["kind"])
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	ctx := logger.WithContext(context.Background())
	FromContext(ctx).Info("from context")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "from context", entry["message"])
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := global
	t.Cleanup(func() { SetGlobal(prev) })
	SetGlobal(New(&Config{Level: "info", Format: "json", Output: buf}))

	FromContext(context.Background()).Info("global")
	assert.Contains(t, buf.String(), `"message":"global"`)
}

func TestFromContext_NopStaysSilent(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := global
	t.Cleanup(func() { SetGlobal(prev) })
	SetGlobal(New(&Config{Level: "debug", Format: "json", Output: buf}))

	ctx := Nop().WithContext(context.Background())
	FromContext(ctx).Error("dropped")
	assert.Empty(t, buf.String())
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{name: "debug level logs debug", level: "debug", logFunc: func(l *Logger) { l.Debug("d") }, expected: true},
		{name: "info level skips debug", level: "info", logFunc: func(l *Logger) { l.Debug("d") }, expected: false},
		{name: "warn level logs warn", level: "warn", logFunc: func(l *Logger) { l.Warnf("skipped %s", "mviews") }, expected: true},
		{name: "error level skips info", level: "error", logFunc: func(l *Logger) { l.Info("i") }, expected: false},
		{name: "unknown level means info", level: "loud", logFunc: func(l *Logger) { l.Info("i") }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(New(&Config{Level: tt.level, Format: "json", Output: buf}))

			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("nothing") })
}
