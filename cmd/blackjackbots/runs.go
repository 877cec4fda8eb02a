package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lox/blackjackbots/internal/config"
	"github.com/lox/blackjackbots/internal/history"
)

// RunsCmd lists the run history
type RunsCmd struct {
	Config string `kong:"default='blackjackbots.hcl',help='Path to HCL configuration file'"`
	DB     string `kong:"help='History database path (overrides config)'"`
	Limit  int    `kong:"default='20',help='Number of runs to show'"`
	ID     string `arg:"" optional:"" help:"Show a single run"`
}

func (c *RunsCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.History.Path
	if c.DB != "" {
		path = c.DB
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no run history at %s: %w", path, err)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	var runs []history.Run
	if c.ID != "" {
		run, err := store.GetRun(c.ID)
		if err != nil {
			return err
		}
		runs = append(runs, *run)
	} else if runs, err = store.ListRuns(c.Limit); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMMAND\tPLAYER\tMETHOD\tSEED\tROUNDS\tWIN%\tMEAN\tSTATES\tSTATUS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%+.4f\t%d\t%s\t%s\n",
			r.ID[:8], r.Command, r.Player, r.Method, r.Seed, r.Rounds,
			r.WinRate(), r.MeanReward, r.States, r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
