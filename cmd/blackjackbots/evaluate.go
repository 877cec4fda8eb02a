package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/config"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/policy"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/session"
	"github.com/lox/blackjackbots/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// EvaluateCmd trains independent agents on separate seeds, then measures
// each with exploration switched off
type EvaluateCmd struct {
	CommonFlags `embed:""`

	Runs        int    `kong:"default='4',help='Independent agents to train and evaluate'"`
	TrainRounds int    `kong:"default='20000',help='Training rounds per agent'"`
	EvalRounds  int    `kong:"default='10000',help='Evaluation rounds per agent'"`
	Method      string `kong:"default='td',enum='td,mc',help='Update rule used while training'"`
	Baseline    string `kong:"default='basic',help='Policy to compare against (empty to skip)'"`
	Parallel    int    `kong:"default='0',help='Maximum concurrent runs (0 for unlimited)'"`
}

// evalResult is the outcome of one seed.
type evalResult struct {
	seed     int64
	stats    *statistics.Statistics
	baseline *statistics.Statistics
	agent    *agent.Agent
}

func (c *EvaluateCmd) Run() error {
	rt, err := c.setup()
	if err != nil {
		return err
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be > 0, got %d", c.Runs)
	}
	method, err := session.ParseMethod(c.Method)
	if err != nil {
		return err
	}

	rec, err := rt.startRun(&history.Run{Command: "evaluate", Player: "agent", Method: string(method)})
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	rt.logger.Info("Evaluating agents",
		"runs", c.Runs,
		"trainRounds", c.TrainRounds,
		"evalRounds", c.EvalRounds,
		"method", method)

	// each run owns its agent, shoe and statistics
	results := make([]evalResult, c.Runs)
	g, gctx := errgroup.WithContext(ctx)
	if c.Parallel > 0 {
		g.SetLimit(c.Parallel)
	}
	for i := range results {
		seed := rt.seed + int64(i)
		g.Go(func() error {
			res, err := c.evaluateSeed(gctx, rt.cfg, method, seed, rt.logger.With("run", i+1))
			if err != nil {
				return fmt.Errorf("run %d (seed %d): %w", i+1, seed, err)
			}
			results[i] = res
			return nil
		})
	}
	runErr := g.Wait()

	total := &statistics.Statistics{}
	baseline := &statistics.Statistics{}
	for _, r := range results {
		if r.stats != nil {
			total.Merge(r.stats)
		}
		if r.baseline != nil {
			baseline.Merge(r.baseline)
		}
	}
	rec.finish(total, runErr)
	if runErr != nil {
		return runErr
	}

	for i, r := range results {
		fmt.Printf("Run %d (seed %d): win %.2f%%  mean %+.4f  states %d\n",
			i+1, r.seed, r.stats.WinRate(), r.stats.Mean(), r.agent.Table().Size())
	}
	fmt.Println(renderSummary("Trained agent (greedy)", total, nil))
	if c.Baseline != "" {
		fmt.Println(renderSummary(fmt.Sprintf("Baseline: %s", c.Baseline), baseline, nil))
		diff := total.Mean() - baseline.Mean()
		fmt.Fprintf(os.Stdout, "Agent vs %s: %+.4f reward/round\n", c.Baseline, diff)
	}
	return nil
}

func (c *EvaluateCmd) evaluateSeed(ctx context.Context, cfg *config.Config, method session.Method, seed int64, logger *log.Logger) (evalResult, error) {
	table := session.Config{
		Decks:          cfg.Table.Decks,
		Penetration:    cfg.Table.ReshuffleFraction,
		DealerStandsOn: cfg.Table.DealerStandsOn,
		Method:         method,
		Logger:         logger,
	}

	ag, err := agent.New(cfg.Agent, randutil.Stream(seed, 1), agent.WithLogger(logger))
	if err != nil {
		return evalResult{}, err
	}

	train := table
	train.Seed = seed
	sess, err := session.New(train, ag)
	if err != nil {
		return evalResult{}, err
	}
	if _, err := sess.Run(ctx, c.TrainRounds, nil); err != nil {
		return evalResult{}, fmt.Errorf("training: %w", err)
	}

	// evaluation shoe is independent of the training shoe
	ag.SetTraining(false)
	eval := table
	eval.Seed = int64(randutil.Stream(seed, 2).Uint64() >> 1)
	sess, err = session.New(eval, ag)
	if err != nil {
		return evalResult{}, err
	}
	stats, err := sess.Run(ctx, c.EvalRounds, nil)
	if err != nil {
		return evalResult{}, fmt.Errorf("evaluation: %w", err)
	}
	res := evalResult{seed: seed, stats: stats, agent: ag}

	if c.Baseline != "" {
		base, err := policy.ByName(c.Baseline, randutil.Stream(seed, 3))
		if err != nil {
			return evalResult{}, err
		}
		sess, err = session.New(eval, base)
		if err != nil {
			return evalResult{}, err
		}
		if res.baseline, err = sess.Run(ctx, c.EvalRounds, nil); err != nil {
			return evalResult{}, fmt.Errorf("baseline: %w", err)
		}
	}
	logger.Debug("Run complete", "seed", seed, "winRate", stats.WinRate())
	return res, nil
}
