// Package config loads the HCL configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "blackjackbots.hcl"

// Config is the resolved configuration.
type Config struct {
	Agent   agent.Config
	Table   TableSettings
	Log     LogSettings
	History HistorySettings
	Server  ServerSettings
}

// TableSettings controls the shoe and dealer.
type TableSettings struct {
	Decks             int
	ReshuffleFraction float64
	DealerStandsOn    int
}

// LogSettings controls the CSV training log.
type LogSettings struct {
	Path string
	Mode tracelog.Mode
}

// HistorySettings controls the SQLite run history.
type HistorySettings struct {
	Path    string
	Enabled bool
}

// ServerSettings controls the websocket endpoint.
type ServerSettings struct {
	Address     string
	Port        int
	IdleTimeout time.Duration
}

// Addr returns host:port.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: agent.DefaultConfig(),
		Table: TableSettings{
			Decks:             deck.DefaultDecks,
			ReshuffleFraction: deck.DefaultPenetration,
			DealerStandsOn:    game.DefaultDealerStandsOn,
		},
		Log: LogSettings{
			Path: "game_log.csv",
			Mode: tracelog.ModeFirst,
		},
		History: HistorySettings{
			Path: "runs.db",
		},
		Server: ServerSettings{
			Address:     "localhost",
			Port:        8080,
			IdleTimeout: 5 * time.Minute,
		},
	}
}

// file mirrors the HCL layout. Pointers distinguish unset from zero.
type file struct {
	Agent   *agentBlock   `hcl:"agent,block"`
	Table   *tableBlock   `hcl:"table,block"`
	Log     *logBlock     `hcl:"log,block"`
	History *historyBlock `hcl:"history,block"`
	Server  *serverBlock  `hcl:"server,block"`
}

type agentBlock struct {
	Alpha          *float64 `hcl:"alpha,optional"`
	Gamma          *float64 `hcl:"gamma,optional"`
	Epsilon        *float64 `hcl:"epsilon,optional"`
	EpsilonMin     *float64 `hcl:"epsilon_min,optional"`
	EpsilonDecay   *float64 `hcl:"epsilon_decay,optional"`
	BatchSize      *int     `hcl:"batch_size,optional"`
	BufferCapacity *int     `hcl:"buffer_capacity,optional"`
}

type tableBlock struct {
	Decks             *int     `hcl:"decks,optional"`
	ReshuffleFraction *float64 `hcl:"reshuffle_fraction,optional"`
	DealerStandsOn    *int     `hcl:"dealer_stands_on,optional"`
}

type logBlock struct {
	Path *string `hcl:"path,optional"`
	Mode *string `hcl:"mode,optional"`
}

type historyBlock struct {
	Path    *string `hcl:"path,optional"`
	Enabled *bool   `hcl:"enabled,optional"`
}

type serverBlock struct {
	Address     *string `hcl:"address,optional"`
	Port        *int    `hcl:"port,optional"`
	IdleTimeout *string `hcl:"idle_timeout,optional"`
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if err := cfg.apply(&raw); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (c *Config) apply(raw *file) error {
	if b := raw.Agent; b != nil {
		set(&c.Agent.Alpha, b.Alpha)
		set(&c.Agent.Gamma, b.Gamma)
		set(&c.Agent.Epsilon, b.Epsilon)
		set(&c.Agent.EpsilonMin, b.EpsilonMin)
		set(&c.Agent.EpsilonDecay, b.EpsilonDecay)
		set(&c.Agent.BatchSize, b.BatchSize)
		set(&c.Agent.BufferCapacity, b.BufferCapacity)
	}
	if b := raw.Table; b != nil {
		set(&c.Table.Decks, b.Decks)
		set(&c.Table.ReshuffleFraction, b.ReshuffleFraction)
		set(&c.Table.DealerStandsOn, b.DealerStandsOn)
	}
	if b := raw.Log; b != nil {
		set(&c.Log.Path, b.Path)
		if b.Mode != nil {
			mode, err := tracelog.ParseMode(*b.Mode)
			if err != nil {
				return err
			}
			c.Log.Mode = mode
		}
	}
	if b := raw.History; b != nil {
		set(&c.History.Path, b.Path)
		set(&c.History.Enabled, b.Enabled)
	}
	if b := raw.Server; b != nil {
		set(&c.Server.Address, b.Address)
		set(&c.Server.Port, b.Port)
		if b.IdleTimeout != nil {
			d, err := time.ParseDuration(*b.IdleTimeout)
			if err != nil {
				return fmt.Errorf("server idle_timeout: %w", err)
			}
			c.Server.IdleTimeout = d
		}
	}
	return nil
}

// Validate checks the configuration for values the simulator cannot use.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if c.Table.Decks < 1 || c.Table.Decks > 8 {
		return fmt.Errorf("table: decks must be between 1 and 8, got %d", c.Table.Decks)
	}
	if c.Table.ReshuffleFraction <= 0 || c.Table.ReshuffleFraction > 1 {
		return fmt.Errorf("table: reshuffle fraction must be in (0, 1], got %v", c.Table.ReshuffleFraction)
	}
	if c.Table.DealerStandsOn < 12 || c.Table.DealerStandsOn > 21 {
		return fmt.Errorf("table: dealer must stand between 12 and 21, got %d", c.Table.DealerStandsOn)
	}
	if c.Log.Path == "" {
		return errors.New("log: path is required")
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history: path is required when enabled")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port: %d", c.Server.Port)
	}
	if c.Server.IdleTimeout < 0 {
		return errors.New("server: idle timeout cannot be negative")
	}
	return nil
}
