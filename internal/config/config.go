// Package config loads game settings from an HCL file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/setforbots/internal/game"
)

// MaxHumans is the number of keyboard layouts the terminal UI provides.
const MaxHumans = 2

// Config represents the complete configuration file.
type Config struct {
	Game      *GameSettings      `hcl:"game,block"`
	Log       *LogSettings       `hcl:"log,block"`
	Spectator *SpectatorSettings `hcl:"spectator,block"`
	Results   *ResultsSettings   `hcl:"results,block"`
	Players   []PlayerConfig     `hcl:"player,block"`
}

// GameSettings are the rules and timings of a game. Durations use
// time.ParseDuration syntax.
type GameSettings struct {
	TableSize          int    `hcl:"table_size,optional"`
	FeatureSize        int    `hcl:"feature_size,optional"`
	FeatureCount       int    `hcl:"feature_count,optional"`
	DeckSize           int    `hcl:"deck_size,optional"`
	TurnTimeout        string `hcl:"turn_timeout,optional"`
	TurnTimeoutWarning string `hcl:"turn_timeout_warning,optional"`
	PointFreeze        string `hcl:"point_freeze,optional"`
	PenaltyFreeze      string `hcl:"penalty_freeze,optional"`
	TableDelay         string `hcl:"table_delay,optional"`
	ComputerDelay      string `hcl:"computer_delay,optional"`
	Hints              bool   `hcl:"hints,optional"`
	Seed               int64  `hcl:"seed,optional"`
}

// LogSettings control where logs go.
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// SpectatorSettings configure the websocket feed. An empty address disables it.
type SpectatorSettings struct {
	Address     string `hcl:"address,optional"`
	RemoteInput bool   `hcl:"remote_input,optional"`
}

// ResultsSettings configure where finished games are recorded. Empty values
// disable the corresponding output.
type ResultsSettings struct {
	Database string `hcl:"database,optional"`
	JSONFile string `hcl:"json_file,optional"`
}

// PlayerConfig declares one seat, in seating order.
type PlayerConfig struct {
	Name string `hcl:"name,label"`
	Kind string `hcl:"kind,optional"`
}

// DefaultConfig returns the classic game with one human and one computer.
func DefaultConfig() *Config {
	d := game.DefaultConfig()
	return &Config{
		Game: &GameSettings{
			TableSize:          d.TableSize,
			FeatureSize:        d.FeatureSize,
			FeatureCount:       4,
			DeckSize:           d.DeckSize,
			TurnTimeout:        d.TurnTimeout.String(),
			TurnTimeoutWarning: d.TurnTimeoutWarning.String(),
			PointFreeze:        d.PointFreeze.String(),
			PenaltyFreeze:      d.PenaltyFreeze.String(),
			TableDelay:         d.TableDelay.String(),
			ComputerDelay:      d.ComputerDelay.String(),
		},
		Log:       &LogSettings{Level: "info", File: "setforbots.log"},
		Spectator: &SpectatorSettings{},
		Results:   &ResultsSettings{},
		Players: []PlayerConfig{
			{Name: "you", Kind: "human"},
			{Name: "bot", Kind: "computer"},
		},
	}
}

// Load reads an HCL file. A missing file yields DefaultConfig; fields left
// out of the file take their default values.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Game == nil {
		c.Game = def.Game
	}
	if c.Log == nil {
		c.Log = def.Log
	}
	if c.Spectator == nil {
		c.Spectator = def.Spectator
	}
	if c.Results == nil {
		c.Results = def.Results
	}
	if len(c.Players) == 0 {
		c.Players = def.Players
	}

	g, dg := c.Game, def.Game
	if g.TableSize == 0 {
		g.TableSize = dg.TableSize
	}
	if g.FeatureSize == 0 {
		g.FeatureSize = dg.FeatureSize
	}
	if g.FeatureCount == 0 {
		g.FeatureCount = dg.FeatureCount
	}
	if g.DeckSize == 0 {
		g.DeckSize = pow(g.FeatureSize, g.FeatureCount)
	}
	for _, f := range []struct {
		v *string
		d string
	}{
		{&g.TurnTimeout, dg.TurnTimeout},
		{&g.TurnTimeoutWarning, dg.TurnTimeoutWarning},
		{&g.PointFreeze, dg.PointFreeze},
		{&g.PenaltyFreeze, dg.PenaltyFreeze},
		{&g.TableDelay, dg.TableDelay},
		{&g.ComputerDelay, dg.ComputerDelay},
	} {
		if *f.v == "" {
			*f.v = f.d
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
	for i := range c.Players {
		if c.Players[i].Kind == "" {
			c.Players[i].Kind = "computer"
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	gc, err := c.GameConfig()
	if err != nil {
		return err
	}
	g := c.Game

	if g.TableSize <= 0 {
		return fmt.Errorf("table_size must be positive, got %d", g.TableSize)
	}
	if g.FeatureSize < 2 {
		return fmt.Errorf("feature_size must be at least 2, got %d", g.FeatureSize)
	}
	if g.FeatureCount < 1 {
		return fmt.Errorf("feature_count must be at least 1, got %d", g.FeatureCount)
	}
	if want := pow(g.FeatureSize, g.FeatureCount); g.DeckSize != want {
		return fmt.Errorf("deck_size must be feature_size^feature_count = %d, got %d", want, g.DeckSize)
	}
	if g.TableSize < g.FeatureSize {
		return fmt.Errorf("table_size %d cannot hold a set of %d cards", g.TableSize, g.FeatureSize)
	}
	if gc.TurnTimeout <= 0 {
		return fmt.Errorf("turn_timeout must be positive")
	}
	if gc.TurnTimeoutWarning < 0 || gc.TurnTimeoutWarning > gc.TurnTimeout {
		return fmt.Errorf("turn_timeout_warning must be between 0 and turn_timeout")
	}
	if gc.PointFreeze <= 0 {
		return fmt.Errorf("point_freeze must be positive")
	}
	if gc.PenaltyFreeze <= 0 {
		return fmt.Errorf("penalty_freeze must be positive")
	}
	if gc.TableDelay < 0 {
		return fmt.Errorf("table_delay must not be negative")
	}
	if gc.ComputerDelay < 0 {
		return fmt.Errorf("computer_delay must not be negative")
	}

	if len(c.Players) == 0 {
		return fmt.Errorf("at least one player must be configured")
	}
	humans := 0
	seen := make(map[string]bool, len(c.Players))
	for _, p := range c.Players {
		kind, err := game.ParsePlayerKind(p.Kind)
		if err != nil {
			return fmt.Errorf("player %s: %w", p.Name, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("player %s: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if kind == game.Human {
			humans++
		}
	}
	if humans > MaxHumans {
		return fmt.Errorf("at most %d human players are supported, got %d", MaxHumans, humans)
	}
	return nil
}

// GameConfig converts the game block into the engine's configuration.
func (c *Config) GameConfig() (game.Config, error) {
	g := c.Game
	cfg := game.DefaultConfig()
	cfg.TableSize = g.TableSize
	cfg.FeatureSize = g.FeatureSize
	cfg.DeckSize = g.DeckSize
	cfg.Hints = g.Hints
	cfg.Seed = g.Seed

	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"turn_timeout", g.TurnTimeout, &cfg.TurnTimeout},
		{"turn_timeout_warning", g.TurnTimeoutWarning, &cfg.TurnTimeoutWarning},
		{"point_freeze", g.PointFreeze, &cfg.PointFreeze},
		{"penalty_freeze", g.PenaltyFreeze, &cfg.PenaltyFreeze},
		{"table_delay", g.TableDelay, &cfg.TableDelay},
		{"computer_delay", g.ComputerDelay, &cfg.ComputerDelay},
	} {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return game.Config{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return cfg, nil
}

// SetPlayers replaces the seats with humans followed by bots computer
// players, named after their kind.
func (c *Config) SetPlayers(humans, bots int) {
	c.Players = nil
	for i := 0; i < humans; i++ {
		c.Players = append(c.Players, PlayerConfig{Name: fmt.Sprintf("human-%d", i+1), Kind: "human"})
	}
	for i := 0; i < bots; i++ {
		c.Players = append(c.Players, PlayerConfig{Name: fmt.Sprintf("bot-%d", i+1), Kind: "computer"})
	}
}

func pow(base, exp int) int {
	n := 1
	for i := 0; i < exp; i++ {
		n *= base
	}
	return n
}
