package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Play      PlayCmd          `cmd:"" help:"Play blackjack interactively in the terminal"`
	Train     TrainCmd         `cmd:"" help:"Train the Q-learning agent by playing rounds"`
	TrainLog  TrainLogCmd      `cmd:"train-log" help:"Train the agent offline from a CSV training log"`
	Benchmark BenchmarkCmd     `cmd:"" help:"Play a fixed policy and write its decisions to the training log"`
	Evaluate  EvaluateCmd      `cmd:"" help:"Train and evaluate agents across several seeds in parallel"`
	Serve     ServeCmd         `cmd:"" help:"Run the websocket server for remote bots"`
	Runs      RunsCmd          `cmd:"" help:"List recorded runs from the history database"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjackbots"),
		kong.Description("Blackjack simulator with a tabular Q-learning agent"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
