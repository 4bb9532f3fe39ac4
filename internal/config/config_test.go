package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, StoreMemory, cfg.StoreBackend())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := write(t, "arbor.yaml", `
port: 9090
locale: zh
collaboration: true
log:
  level: debug
redis:
  addr: localhost:6379
  ttl: 1h
exports:
  backend: loam
  dir: ./archive
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "zh", cfg.Locale)
	assert.True(t, cfg.Collaboration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset nested keys keep defaults")
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "arbor:session:", cfg.Redis.Prefix)
	assert.Equal(t, StoreRedis, cfg.StoreBackend())
	assert.Equal(t, ExportLoam, cfg.Exports.Backend)
	assert.Equal(t, 0.1, cfg.ZoomStep)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "arbor.json", `{"port": "7070", "metrics": {"enabled": false}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port, "weakly typed input")
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Unknown key", "colour: blue\n"},
		{"Bad port", "port: 70000\n"},
		{"Bad level", "log:\n  level: loud\n"},
		{"Bad store", "store:\n  backend: tape\n"},
		{"Redis without addr", "store:\n  backend: redis\n"},
		{"Bad export", "exports:\n  backend: ftp\n"},
		{"Zero zoom step", "zoom_step: 0\n"},
		{"Malformed", "port: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, "arbor.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDecode_KeepsUnsetFields(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(map[string]any{"store": map[string]any{"backend": "file"}}, &cfg))
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, ".arbor/sessions", cfg.Store.Dir)
}
