package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("info", &buf, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Action executed", zap.String("action", "graph/create"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Action executed", entry["msg"])
	assert.Equal(t, "graph/create", entry["action"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("debug", &buf, true)
	require.NoError(t, err)

	logger.Debug("visible", zap.Int("n", 1))
	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), `"msg"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)
	assert.NotNil(t, Must("loud"))
}
