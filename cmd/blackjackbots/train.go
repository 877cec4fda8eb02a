package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/session"
)

// TrainCmd trains the agent online against the dealer
type TrainCmd struct {
	CommonFlags `embed:""`
	TraceFlags  `embed:""`

	Rounds       int           `kong:"default='10000',help='Number of rounds to play'"`
	Method       string        `kong:"default='td',enum='td,mc',help='Update rule: td (replay buffer) or mc (Monte-Carlo episodes)'"`
	Delay        time.Duration `kong:"default='0s',help='Pause between rounds'"`
	Alpha        *float64      `kong:"help='Learning rate (overrides config)'"`
	Gamma        *float64      `kong:"help='Discount factor (overrides config)'"`
	EpsilonDecay *float64      `kong:"help='Exploration decay per round (overrides config)'"`
	Series       int           `kong:"default='20',help='Win-rate series lines to print (0 to disable)'"`
	Quiet        bool          `kong:"help='Hide the progress bar'"`
}

func (c *TrainCmd) Run() error {
	rt, err := c.setup()
	if err != nil {
		return err
	}
	method, err := session.ParseMethod(c.Method)
	if err != nil {
		return err
	}

	cfg := rt.cfg.Agent
	if c.Alpha != nil {
		cfg.Alpha = *c.Alpha
	}
	if c.Gamma != nil {
		cfg.Gamma = *c.Gamma
	}
	if c.EpsilonDecay != nil {
		cfg.EpsilonDecay = *c.EpsilonDecay
	}
	ag, err := agent.New(cfg, randutil.Stream(rt.seed, 1), agent.WithLogger(rt.logger))
	if err != nil {
		return err
	}

	trace, mode, err := c.open(rt)
	if err != nil {
		return err
	}
	var opts []session.Option
	if trace != nil {
		opts = append(opts, session.WithTraceLog(trace))
	}

	sess, err := session.New(session.Config{
		Seed:           rt.seed,
		Decks:          rt.cfg.Table.Decks,
		Penetration:    rt.cfg.Table.ReshuffleFraction,
		DealerStandsOn: rt.cfg.Table.DealerStandsOn,
		Method:         method,
		LogMode:        mode,
		Delay:          c.Delay,
		Logger:         rt.logger,
	}, ag, opts...)
	if err != nil {
		return err
	}

	rec, err := rt.startRun(&history.Run{Command: "train", Player: "agent", Method: string(method)})
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	rt.logger.Info("Training agent",
		"rounds", c.Rounds,
		"method", method,
		"alpha", cfg.Alpha,
		"gamma", cfg.Gamma,
		"decks", rt.cfg.Table.Decks)

	var progress func(session.Progress)
	if !c.Quiet {
		progress = newProgressPrinter(os.Stdout, "Training").Update
	}
	stats, runErr := sess.Run(ctx, c.Rounds, progress)

	rec.run.Epsilon = ag.Epsilon()
	rec.run.States = ag.Table().Size()
	rec.finish(stats, runErr)
	if runErr != nil {
		return runErr
	}

	fmt.Println(renderSummary("Training results", stats, ag))
	if c.Series > 0 {
		writeSeries(os.Stdout, stats.Series, c.Series)
	}
	rt.logger.Info("Training completed",
		"states", ag.Table().Size(),
		"epsilon", ag.Epsilon(),
		"session", sess.ID())
	return nil
}
