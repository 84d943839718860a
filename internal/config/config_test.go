package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cmdtree/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdtree.yaml")
	data := `
poll_interval: 50ms
hold: 250ms
source:
  kind: redis
  key: robot:commands
state:
  kind: redis
  view: pit
redis:
  addr: redis:6379
  db: 2
  ttl: 24h
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Hold)
	assert.Equal(t, "robot:commands", cfg.Source.Key)
	assert.Equal(t, "pit", cfg.State.View)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "cmdtree:view:", cfg.Redis.Prefix, "unset keys keep their default")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  kind: kafka\nhold: 0s\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source.kind "kafka"`)
	assert.Contains(t, err.Error(), "hold must be positive")
}

func TestLoad_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hold: [unclosed"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate_ExecSource(t *testing.T) {
	cfg := config.Default()
	cfg.Source = config.SourceConfig{Kind: config.KindExec}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.command is required")

	cfg.Source.Command = "nt-bridge"
	cfg.Source.Args = []string{"--table", "SmartDashboard"}
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.UsesRedis())
}
