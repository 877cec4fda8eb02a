package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/blackjackbots/internal/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blackjackbots.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
agent {
  alpha       = 0
  batch_size  = 1
  epsilon     = 0.5
}

table {
  decks = 2
}

log {
  path = "steps.csv"
  mode = "steps"
}

history {
  enabled = true
}

server {
  port         = 9090
  idle_timeout = "30s"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Agent.Alpha, "explicit zero is kept")
	assert.Equal(t, 1, cfg.Agent.BatchSize)
	assert.Equal(t, 0.5, cfg.Agent.Epsilon)
	assert.Equal(t, 0.95, cfg.Agent.Gamma)
	assert.Equal(t, 2, cfg.Table.Decks)
	assert.Equal(t, 0.5, cfg.Table.ReshuffleFraction)
	assert.Equal(t, 17, cfg.Table.DealerStandsOn)
	assert.Equal(t, "steps.csv", cfg.Log.Path)
	assert.Equal(t, tracelog.ModeSteps, cfg.Log.Mode)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "runs.db", cfg.History.Path)
	assert.Equal(t, "localhost:9090", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.IdleTimeout)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":        `agent {`,
		"unknown block": `poker { seats = 6 }`,
		"bad mode":      `log { mode = "all" }`,
		"bad alpha":     `agent { alpha = 2 }`,
		"bad decks":     `table { decks = 0 }`,
		"bad duration":  `server { idle_timeout = "soon" }`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.History.Enabled = true
	cfg.History.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Table.DealerStandsOn = 22
	assert.Error(t, cfg.Validate())
}
