package logging

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

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "info", "json"))

	logger.Debug("hidden")
	logger.Info("import scene complete", "scene_id", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "import scene complete", entry["msg"])
	assert.Equal(t, float64(3), entry["scene_id"])
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "debug", "text"))

	logger.Debug("icon not found, skipping", "icon_path", "/uploads/a.png")

	out := buf.String()
	assert.Contains(t, out, "icon not found, skipping")
	assert.Contains(t, out, "/uploads/a.png")
}

func TestNewHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "error", "text"))

	logger.Warn("quiet")
	assert.Empty(t, buf.String())
}

func TestNewWritesLogFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "app.log")
	logger, cleanup, err := New("info", path, "json")
	require.NoError(t, err)

	logger.Info("hello")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewBadLogFile(t *testing.T) {
	_, _, err := New("info", filepath.Join(t.TempDir(), "missing", "app.log"), "json")
	assert.Error(t, err)
}
