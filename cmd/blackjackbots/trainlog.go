package main

import (
	"fmt"
	"os"

	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// TrainLogCmd trains the agent from recorded rows without playing
type TrainLogCmd struct {
	CommonFlags `embed:""`

	Log    string `kong:"help='Training log path (overrides config)'"`
	Epochs int    `kong:"default='100',help='Passes over the log'"`
	Top    int    `kong:"default='10',help='Learned states to print'"`
}

func (c *TrainLogCmd) Run() error {
	rt, err := c.setup()
	if err != nil {
		return err
	}
	path := rt.cfg.Log.Path
	if c.Log != "" {
		path = c.Log
	}

	rows, err := tracelog.Open(path, rt.logger).Read()
	if err != nil {
		return err
	}
	rt.logger.Info("Loaded training log", "path", path, "rows", len(rows))

	ag, err := agent.New(rt.cfg.Agent, randutil.Stream(rt.seed, 1), agent.WithLogger(rt.logger))
	if err != nil {
		return err
	}

	rec, err := rt.startRun(&history.Run{Command: "train-log", Player: "agent", Method: "td"})
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	summary, runErr := ag.TrainFromLog(ctx, rows, c.Epochs, nil)

	rec.run.Rounds = summary.Rows
	rec.run.Epsilon = ag.Epsilon()
	rec.run.States = ag.Table().Size()
	rec.finish(nil, runErr)
	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nTrained %d epochs over %d rows (%d skipped), %d states learned\n",
		summary.Epochs, summary.Rows, summary.Skipped, summary.States)
	entries := ag.Snapshot()
	if c.Top > 0 && len(entries) > c.Top {
		entries = entries[:c.Top]
	}
	writeEntries(os.Stdout, entries)
	return nil
}
