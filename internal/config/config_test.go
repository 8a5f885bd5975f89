package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setforbots.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	gc, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, gc.TableSize)
	assert.Equal(t, 81, gc.DeckSize)
	assert.Equal(t, 60*time.Second, gc.TurnTimeout)
	assert.Len(t, cfg.Players, 2)
}

func TestLoadDecodesFile(t *testing.T) {
	path := writeConfig(t, `
game {
  table_size     = 9
  feature_size   = 3
  feature_count  = 3
  turn_timeout   = "30s"
  point_freeze   = "500ms"
  hints          = true
  seed           = 42
}

log {
  level = "debug"
}

spectator {
  address      = "localhost:8090"
  remote_input = true
}

results {
  database = "games.db"
}

player "alice" {
  kind = "human"
}

player "hal" {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 27, cfg.Game.DeckSize, "deck size derived from features")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "setforbots.log", cfg.Log.File)
	assert.Equal(t, "localhost:8090", cfg.Spectator.Address)
	assert.True(t, cfg.Spectator.RemoteInput)
	assert.Equal(t, "games.db", cfg.Results.Database)
	require.Len(t, cfg.Players, 2)
	assert.Equal(t, "alice", cfg.Players[0].Name)
	assert.Equal(t, "human", cfg.Players[0].Kind)
	assert.Equal(t, "computer", cfg.Players[1].Kind)

	gc, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, gc.TableSize)
	assert.Equal(t, 27, gc.DeckSize)
	assert.Equal(t, 30*time.Second, gc.TurnTimeout)
	assert.Equal(t, 500*time.Millisecond, gc.PointFreeze)
	assert.Equal(t, 3*time.Second, gc.PenaltyFreeze, "unset duration keeps its default")
	assert.True(t, gc.Hints)
	assert.Equal(t, int64(42), gc.Seed)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	_, err := Load(writeConfig(t, `game { table_size = }`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `game { table_size = "twelve" }`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero table", func(c *Config) { c.Game.TableSize = 0 }, "table_size"},
		{"feature size one", func(c *Config) { c.Game.FeatureSize = 1 }, "feature_size"},
		{"no features", func(c *Config) { c.Game.FeatureCount = 0 }, "feature_count"},
		{"deck mismatch", func(c *Config) { c.Game.DeckSize = 80 }, "deck_size"},
		{"table smaller than set", func(c *Config) { c.Game.TableSize = 2 }, "cannot hold"},
		{"bad duration", func(c *Config) { c.Game.TurnTimeout = "soon" }, "turn_timeout"},
		{"zero timeout", func(c *Config) { c.Game.TurnTimeout = "0s" }, "turn_timeout"},
		{"warning beyond timeout", func(c *Config) { c.Game.TurnTimeoutWarning = "2m" }, "turn_timeout_warning"},
		{"zero freeze", func(c *Config) { c.Game.PenaltyFreeze = "0s" }, "penalty_freeze"},
		{"negative delay", func(c *Config) { c.Game.TableDelay = "-1s" }, "table_delay"},
		{"no players", func(c *Config) { c.Players = nil }, "at least one player"},
		{"unknown kind", func(c *Config) { c.Players[1].Kind = "robot" }, "unknown player kind"},
		{"duplicate name", func(c *Config) { c.Players[1].Name = c.Players[0].Name }, "duplicate"},
		{"too many humans", func(c *Config) {
			c.Players = []PlayerConfig{{"a", "human"}, {"b", "human"}, {"c", "human"}}
		}, "at most 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetPlayers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetPlayers(1, 3)
	require.Len(t, cfg.Players, 4)
	assert.Equal(t, "human", cfg.Players[0].Kind)
	assert.Equal(t, "bot-3", cfg.Players[3].Name)
	require.NoError(t, cfg.Validate())
}
