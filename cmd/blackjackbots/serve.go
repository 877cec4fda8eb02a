package main

import (
	"time"

	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/server"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// ServeCmd runs the websocket endpoint for remote bots
type ServeCmd struct {
	CommonFlags `embed:""`

	Addr        string         `kong:"help='Server address (overrides config)'"`
	IdleTimeout *time.Duration `kong:"help='Close connections idle this long (overrides config)'"`
	Log         bool           `kong:"help='Append the first decision of each round to the training log'"`
}

func (c *ServeCmd) Run() error {
	rt, err := c.setup()
	if err != nil {
		return err
	}

	cfg := server.Config{
		Addr:           rt.cfg.Server.Addr(),
		Seed:           rt.seed,
		Decks:          rt.cfg.Table.Decks,
		Penetration:    rt.cfg.Table.ReshuffleFraction,
		DealerStandsOn: rt.cfg.Table.DealerStandsOn,
		IdleTimeout:    rt.cfg.Server.IdleTimeout,
		Logger:         rt.logger,
	}
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.IdleTimeout != nil {
		cfg.IdleTimeout = *c.IdleTimeout
	}
	if c.Log {
		cfg.Trace = tracelog.Open(rt.cfg.Log.Path, rt.logger)
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	return server.NewServer(cfg).Start(ctx)
}
