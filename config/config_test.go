package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, ":8090", cfg.Status.Addr)
	assert.Equal(t, "@every 30s", cfg.Health.Schedule)
}

func TestLoad(t *testing.T) {
	t.Run("empty_path_yields_defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing_file_is_an_error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("toml", func(t *testing.T) {
		path := writeConfig(t, "beatlab.toml", `
[log]
level = "debug"

[store]
driver = "sqlite"
path = "/tmp/kv.db"

[status]
enabled = false
addr = ":9999"
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
		assert.Equal(t, "/tmp/kv.db", cfg.Store.Path)
		assert.False(t, cfg.Status.Enabled)
		assert.Equal(t, ":9999", cfg.Status.Addr)
		assert.Equal(t, "@every 30s", cfg.Health.Schedule, "unset sections keep defaults")
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeConfig(t, "beatlab.yaml", `
log:
  level: warn
store:
  driver: file
  path: /var/lib/beatlab
health:
  schedule: "@every 5s"
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "file", cfg.Store.Driver)
		assert.Equal(t, "/var/lib/beatlab", cfg.Store.Path)
		assert.Equal(t, "@every 5s", cfg.Health.Schedule)
	})

	t.Run("rejects_unknown_extension", func(t *testing.T) {
		path := writeConfig(t, "beatlab.ini", "level=debug")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("override_on_top_of_defaults", func(t *testing.T) {
		t.Setenv("BEATLAB_LOG_LEVEL", "trace")
		t.Setenv("BEATLAB_STATUS_ENABLED", "false")
		t.Setenv("BEATLAB_STATUS_ADDR", ":7070")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "trace", cfg.Log.Level)
		assert.False(t, cfg.Status.Enabled)
		assert.Equal(t, ":7070", cfg.Status.Addr)
	})

	t.Run("override_beats_file", func(t *testing.T) {
		t.Setenv("BEATLAB_STORE_DRIVER", "sqlite")
		path := writeConfig(t, "beatlab.toml", "[store]\ndriver = \"file\"\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
	})

	t.Run("bad_boolean_is_an_error", func(t *testing.T) {
		t.Setenv("BEATLAB_STATUS_ENABLED", "definitely")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("unset_variables_change_nothing", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}
