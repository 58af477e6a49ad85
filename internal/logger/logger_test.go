package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", Output: &buf})
	t.Cleanup(func() { Configure(Options{}) })

	assert.Equal(t, "debug", Level())

	InfoWithFields("request", map[string]interface{}{"status": 200})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestConfigure_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "loud", Output: &buf, Format: "text"})
	t.Cleanup(func() { Configure(Options{}) })

	assert.Equal(t, "info", Level())
	assert.Contains(t, buf.String(), "Invalid log level 'loud'")
}

func TestConfigure_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	Configure(Options{Output: &buf})
	t.Cleanup(func() { Configure(Options{}) })

	assert.Equal(t, "warning", Level())
	Info("hidden")
	assert.Empty(t, buf.String())
}
