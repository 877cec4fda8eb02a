package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/cmd/blackjackbots/shared"
	"github.com/lox/blackjackbots/internal/config"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// CommonFlags are shared by every command that plays or trains.
type CommonFlags struct {
	Config  string `kong:"default='blackjackbots.hcl',help='Path to HCL configuration file'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	LogJSON bool   `kong:"name='json-logs',help='Write logs as JSON'"`
	Seed    int64  `kong:"default='0',help='RNG seed (0 for time-based)'"`
	Decks   *int   `kong:"help='Number of decks in the shoe (overrides config)'"`
}

// TraceFlags select the CSV training log.
type TraceFlags struct {
	LogPath string `kong:"name='log',help='Training log path (overrides config)'"`
	LogMode string `kong:"help='Rows written per round: first or steps (overrides config)'"`
	NoLog   bool   `kong:"help='Do not write the training log'"`
}

// runtime is the resolved state shared by a command's run.
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
	seed   int64
}

func (f *CommonFlags) setup() (*runtime, error) {
	logger := shared.SetupLogger(f.Debug)
	if f.LogJSON {
		logger = shared.SetupStructuredLogger(f.Debug)
	}

	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.Decks != nil {
		cfg.Table.Decks = *f.Decks
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := randutil.Resolve(f.Seed)
	if f.Seed == 0 {
		logger.Info("Using random seed", "seed", seed)
	} else {
		logger.Info("Using deterministic seed", "seed", seed)
	}
	return &runtime{cfg: cfg, logger: logger, seed: seed}, nil
}

// open returns the training log store, or nil when logging is disabled.
func (f *TraceFlags) open(rt *runtime) (*tracelog.Store, tracelog.Mode, error) {
	mode := rt.cfg.Log.Mode
	if f.LogMode != "" {
		m, err := tracelog.ParseMode(f.LogMode)
		if err != nil {
			return nil, "", err
		}
		mode = m
	}
	if f.NoLog {
		return nil, mode, nil
	}
	path := rt.cfg.Log.Path
	if f.LogPath != "" {
		path = f.LogPath
	}
	return tracelog.Open(path, rt.logger), mode, nil
}

// recorder writes a run to the history database when it is enabled.
type recorder struct {
	store  *history.Store
	run    *history.Run
	logger *log.Logger
}

func (rt *runtime) startRun(run *history.Run) (*recorder, error) {
	rec := &recorder{run: run, logger: rt.logger.WithPrefix("history")}
	if !rt.cfg.History.Enabled {
		return rec, nil
	}
	store, err := history.Open(rt.cfg.History.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	run.Seed = rt.seed
	if err := store.SaveRun(run); err != nil {
		store.Close()
		return nil, err
	}
	rec.store = store
	rec.logger.Debug("Recording run", "id", run.ID)
	return rec, nil
}

// finish stores the final statistics and closes the database. Failures are
// logged rather than returned so they never mask the run's own error.
func (r *recorder) finish(stats *statistics.Statistics, runErr error) {
	if r.store == nil {
		return
	}
	defer func() {
		if err := r.store.Close(); err != nil {
			r.logger.Error("Failed to close history", "error", err)
		}
	}()

	if stats != nil {
		r.run.Record(stats)
	}
	r.run.Status = history.StatusCompleted
	if runErr != nil {
		r.run.Status = history.StatusFailed
		r.run.Error = runErr.Error()
	}
	r.run.FinishedAt = time.Now().UTC()
	if err := r.store.UpdateRun(r.run); err != nil {
		r.logger.Error("Failed to update run", "id", r.run.ID, "error", err)
		return
	}
	r.logger.Info("Run recorded", "id", r.run.ID, "status", r.run.Status)
}
