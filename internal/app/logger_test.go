package app

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json at warn drops info", func(t *testing.T) {
		buf := &SafeBuffer{}
		logger := newLogger("warn", "json", buf)
		logger.Info("hidden")
		logger.Warn("shown", "entity_id", "abc")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(t, "shown", rec["msg"])
		assert.Equal(t, "behaviourgrid", rec["service"])
		assert.Equal(t, "abc", rec["entity_id"])
	})

	t.Run("text with unknown level falls back to info", func(t *testing.T) {
		buf := &SafeBuffer{}
		logger := newLogger("loud", "text", buf)
		logger.Debug("hidden")
		logger.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})
}
