package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/policy"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/session"
)

// BenchmarkCmd plays a fixed policy, typically to build a training log
type BenchmarkCmd struct {
	CommonFlags `embed:""`
	TraceFlags  `embed:""`

	Rounds int    `kong:"default='10000',help='Number of rounds to play'"`
	Policy string `kong:"default='basic',help='Policy to play: basic, random or stand17'"`
	Quiet  bool   `kong:"help='Hide the progress bar'"`
}

func (c *BenchmarkCmd) Run() error {
	rt, err := c.setup()
	if err != nil {
		return err
	}
	player, err := policy.ByName(c.Policy, randutil.Stream(rt.seed, 1))
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(policy.Named, ", "))
	}

	trace, mode, err := c.open(rt)
	if err != nil {
		return err
	}
	var opts []session.Option
	if trace != nil {
		opts = append(opts, session.WithTraceLog(trace))
		rt.logger.Info("Writing training log", "path", trace.Path(), "mode", mode)
	}

	sess, err := session.New(session.Config{
		Seed:           rt.seed,
		Decks:          rt.cfg.Table.Decks,
		Penetration:    rt.cfg.Table.ReshuffleFraction,
		DealerStandsOn: rt.cfg.Table.DealerStandsOn,
		LogMode:        mode,
		Logger:         rt.logger,
	}, player, opts...)
	if err != nil {
		return err
	}

	rec, err := rt.startRun(&history.Run{Command: "benchmark", Player: c.Policy})
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	var progress func(session.Progress)
	if !c.Quiet {
		progress = newProgressPrinter(os.Stdout, "Benchmark").Update
	}
	stats, runErr := sess.Run(ctx, c.Rounds, progress)
	rec.finish(stats, runErr)
	if runErr != nil {
		return runErr
	}

	fmt.Println(renderSummary(fmt.Sprintf("Benchmark: %s", c.Policy), stats, nil))
	return nil
}
