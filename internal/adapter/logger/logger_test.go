package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter(&buf, "api", "info")

	lgr.Error("store_timeout", "Store call timed out", "req-1", map[string]interface{}{"order_id": "o-1"}, errors.New("deadline"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "store_timeout", entry["action"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "Store call timed out", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, map[string]any{"order_id": "o-1"}, entry["details"])
	assert.Equal(t, map[string]any{"msg": "deadline"}, entry["error"])
}

func TestJSONLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter(&buf, "api", "info")

	lgr.Debug("noise", "hidden", "", nil)
	assert.Empty(t, buf.String())

	lgr.Info("signal", "shown", "", nil)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
