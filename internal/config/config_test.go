package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAppliesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
log_level: debug
settings:
  backend: BuntDB
commands:
  prefixes: "!"
  moderator_immunity: false
voice:
  block_enabled: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("EVENT_LOG_LIMIT", "7")
	t.Setenv("OPERATORS", "1, 2,,3")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "buntdb", cfg.Settings.Backend)
	assert.Equal(t, "!", cfg.Commands.Prefixes)
	assert.False(t, cfg.Commands.ModeratorImmunity)
	assert.True(t, cfg.Voice.BlockEnabled)
	assert.Equal(t, 7, cfg.Voice.EventLogLimit)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.Operators)
	assert.Equal(t, 99, cfg.Commands.MaxNameLength)
	assert.Equal(t, "@daily", cfg.RetentionSchedule)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	_, err := Load()
	require.Error(t, err)
}

func TestNormalizeBackend(t *testing.T) {
	assert.Equal(t, "sqlite", normalizeBackend("mysql"))
	assert.Equal(t, "postgres", normalizeBackend("Postgres"))
	assert.Equal(t, "memory", normalizeBackend("memory"))
}
