package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("text renames error", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := Open(&buf, "", slog.LevelInfo)
		require.NoError(t, err)
		l.Debug("hidden")
		l.Warn("load failed", "error", errors.New("boom"))
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "err=boom")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := Open(&buf, "JSON", slog.LevelDebug)
		require.NoError(t, err)
		l.Info("command resolved", "key", "3+4")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "command resolved", rec["msg"])
		assert.Equal(t, "3+4", rec["key"])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Open(&bytes.Buffer{}, "xml", slog.LevelInfo)
		assert.ErrorContains(t, err, "unknown log format")
	})
}
