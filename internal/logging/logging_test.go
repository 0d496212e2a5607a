package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false)
	logger.Info("booking created", "space", 7)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "booking created", rec["msg"])
	assert.Equal(t, float64(7), rec["space"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug, true)
	logger.Debug("session restored", "subject", "kim@example.com")

	out := buf.String()
	assert.Contains(t, out, "msg=\"session restored\"")
	assert.Contains(t, out, "subject=kim@example.com")
}

func TestOpenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	logger, closer, err := OpenFile(dir, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("tui started")
	require.NoError(t, closer.Close())

	// Reopening appends.
	logger, closer, err = OpenFile(dir, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("tui stopped")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tui started")
	assert.Contains(t, string(data), "tui stopped")

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
