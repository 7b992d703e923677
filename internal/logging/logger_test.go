package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestNewLogger_JSONConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "run.log")

	l, err := NewLogger(Config{Level: INFO, OutputFile: path, JSONFormat: true, Console: &console})
	require.NoError(t, err)

	l.Slog().Debug("hidden")
	l.Slog().With("component", "loader").Info("stage done", "stage", "movies")
	require.NoError(t, l.Close())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "stage done", entry["msg"])
	assert.Equal(t, "loader", entry["component"])
	assert.Equal(t, "movies", entry["stage"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, console.String(), string(data))
}

func TestRotateIfNeeded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 64), 0644))
	require.NoError(t, os.WriteFile(path+".1", []byte("older"), 0644))

	l, err := NewLogger(Config{OutputFile: path, MaxSize: 32, MaxBackups: 3, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	defer l.Close()

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, rotated, 64)

	older, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "older", string(older))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("logs", false)
	assert.Equal(t, INFO, cfg.Level)
	assert.True(t, cfg.JSONFormat)
	assert.Contains(t, cfg.OutputFile, "actorgraph_")

	cfg = DefaultConfig("", true)
	assert.Equal(t, DEBUG, cfg.Level)
	assert.Empty(t, cfg.OutputFile)
	assert.True(t, cfg.AddSource)
}
