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

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Format = "xml"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxBackups = -1
	assert.Error(t, bad.Validate())
}

func TestJSONLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "warn", Format: "json"})
	log.Info("hidden")
	log.Warn("shown", slog.String("component", "dashboard"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "dashboard", rec["component"])
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	cfg := DefaultConfig()
	cfg.File = path
	log, closeFn, err := New(cfg, "dashboard", "test")
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "msg=hello")
	assert.Contains(t, string(raw), "version=test")
}
