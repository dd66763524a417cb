package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Debug("hidden")
	log.Info("notam cycle refreshed", "scope", "crew-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "notam cycle refreshed", entry["msg"])
	assert.Equal(t, "crew-1", entry["scope"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Debug("probe", "k", "v")
	assert.Contains(t, buf.String(), "k=v")
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notams.log")
	w := RotatingFile(path)

	NewWithWriter(w, "info", "json").Info("notam cycle refreshed", "scope", "crew-1")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scope":"crew-1"`)
}
