package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/policy"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/tracelog"
	"github.com/lox/blackjackbots/internal/tui"
)

// PlayCmd starts the interactive table
type PlayCmd struct {
	Config   string `kong:"default='blackjackbots.hcl',help='Path to HCL configuration file'"`
	Seed     int64  `kong:"default='0',help='RNG seed (0 for time-based)'"`
	Hint     string `kong:"default='basic',enum='basic,agent,none',help='Advisor for the a key: basic, agent or none'"`
	Epochs   int    `kong:"default='50',help='Epochs of offline training for the agent hint'"`
	Record   bool   `kong:"help='Append your decisions to the training log'"`
	DebugLog string `kong:"help='Write debug logs to this file'"`
}

func (c *PlayCmd) Run() error {
	// the terminal belongs to the table, so logs go to a file or nowhere
	logger := log.New(io.Discard)
	if c.DebugLog != "" {
		f, err := os.OpenFile(c.DebugLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create debug log: %w", err)
		}
		defer f.Close()
		logger = log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	}

	flags := CommonFlags{Config: c.Config, Seed: c.Seed}
	rt, err := flags.setup()
	if err != nil {
		return err
	}
	rt.logger = logger

	cfg := tui.Config{
		Seed:           rt.seed,
		Decks:          rt.cfg.Table.Decks,
		Penetration:    rt.cfg.Table.ReshuffleFraction,
		DealerStandsOn: rt.cfg.Table.DealerStandsOn,
		HintName:       c.Hint,
		Logger:         logger,
	}
	switch c.Hint {
	case "basic":
		cfg.Hint = policy.BasicStrategy{}
	case "agent":
		ag, err := c.trainHint(rt)
		if err != nil {
			return err
		}
		cfg.Hint = ag
	}
	if c.Record {
		cfg.Trace = tracelog.Open(rt.cfg.Log.Path, logger)
	}

	m := tui.NewModel(cfg)
	if err := tui.Run(m); err != nil {
		return err
	}

	stats := m.Stats()
	if stats.Rounds > 0 {
		fmt.Println(renderSummary("Session", stats, nil))
	}
	return nil
}

// trainHint trains a greedy agent from the training log.
func (c *PlayCmd) trainHint(rt *runtime) (*agent.Agent, error) {
	rows, err := tracelog.Open(rt.cfg.Log.Path, rt.logger).Read()
	if err != nil {
		return nil, err
	}
	ag, err := agent.New(rt.cfg.Agent, randutil.Stream(rt.seed, 1), agent.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if _, err := ag.TrainFromLog(shared.SetupSignalHandler(), rows, c.Epochs, nil); err != nil {
			return nil, err
		}
	}
	ag.SetTraining(false)
	return ag, nil
}
