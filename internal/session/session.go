// Package session plays consecutive blackjack rounds for one player.
//
// A Session owns its shoe, engine, statistics and optional training log.
// When the player is an *agent.Agent in training mode the session feeds
// every round back into the agent and decays its exploration rate.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/blackjackbots/internal/agent"
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/evaluator"
	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/policy"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// Method selects how a learning agent is updated after a round.
type Method string

const (
	// MethodTD stores each step in the replay buffer and runs a TD update.
	MethodTD Method = "td"
	// MethodMC applies a Monte-Carlo update over the whole round.
	MethodMC Method = "mc"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodTD, MethodMC:
		return Method(s), nil
	case "":
		return MethodTD, nil
	}
	return "", fmt.Errorf("unknown training method %q", s)
}

// Config holds session settings
type Config struct {
	Seed           int64
	Decks          int
	Penetration    float64
	DealerStandsOn int
	Method         Method
	LogMode        tracelog.Mode
	Delay          time.Duration // pause after each round
	ProgressEvery  int
	Clock          quartz.Clock
	Logger         *log.Logger
}

// RoundResult describes one completed round.
type RoundResult struct {
	Round       int
	Outcome     game.Outcome
	Reward      int
	Steps       []agent.Transition
	FirstState  game.State
	FirstAction game.Action
	Player      []deck.Card
	Dealer      []deck.Card
}

// Decided reports whether the player made at least one decision.
func (r RoundResult) Decided() bool { return len(r.Steps) > 0 }

// Progress is emitted periodically by Run.
type Progress struct {
	Round   int
	Rounds  int
	WinRate float64
	Epsilon float64
	States  int
	Elapsed time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithTraceLog appends decisions to store after each round.
func WithTraceLog(store *tracelog.Store) Option {
	return func(s *Session) {
		s.trace = store
	}
}

// Session plays rounds for a single player.
type Session struct {
	id      string
	cfg     Config
	shoe    *deck.Shoe
	engine  *game.Engine
	player  policy.Policy
	learner *agent.Agent
	trace   *tracelog.Store
	stats   *statistics.Statistics
	rounds  int
	logger  *log.Logger
}

// New creates a session for player. If player is an *agent.Agent it is
// updated after every round while its training flag is set.
func New(cfg Config, player policy.Policy, opts ...Option) (*Session, error) {
	if player == nil {
		return nil, errors.New("session requires a player")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Method == "" {
		cfg.Method = MethodTD
	}
	if cfg.LogMode == "" {
		cfg.LogMode = tracelog.ModeFirst
	}

	s := &Session{
		id:     uuid.New().String(),
		cfg:    cfg,
		player: player,
		stats:  &statistics.Statistics{},
	}
	s.logger = cfg.Logger.WithPrefix("session").With("session", s.id[:8])
	s.learner, _ = player.(*agent.Agent)
	s.shoe = deck.NewShoe(randutil.New(cfg.Seed), cfg.Decks, cfg.Penetration)
	s.engine = game.NewEngine(s.shoe, game.WithLogger(cfg.Logger), game.WithDealerStandsOn(cfg.DealerStandsOn))
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Stats returns the accumulated statistics.
func (s *Session) Stats() *statistics.Statistics { return s.stats }

// Engine exposes the underlying engine for rendering.
func (s *Session) Engine() *game.Engine { return s.engine }

// PlayRound deals a round, lets the player decide until the round leaves the
// player's turn, finishes the dealer's turn and records the result.
func (s *Session) PlayRound(ctx context.Context) (RoundResult, error) {
	if err := ctx.Err(); err != nil {
		return RoundResult{}, err
	}
	if s.shoe.MaybeReshuffle() {
		s.logger.Debug("Shoe reshuffled", "cards", s.shoe.Size())
	}
	if err := s.engine.StartRound(); err != nil {
		return RoundResult{}, fmt.Errorf("start round: %w", err)
	}

	var steps []agent.Transition
	for s.engine.Phase() == game.PhasePlayerTurn {
		st := s.engine.State()
		action := s.player.Decide(st)
		if err := s.engine.Apply(action); err != nil {
			return RoundResult{}, fmt.Errorf("apply %s: %w", action, err)
		}
		if n := len(steps); n > 0 {
			prev := st
			steps[n-1].Next = &prev
		}
		steps = append(steps, agent.Transition{State: st, Action: action})
	}
	if s.engine.Phase() == game.PhaseDealerTurn {
		if err := s.engine.RunDealerTurn(); err != nil {
			return RoundResult{}, fmt.Errorf("dealer turn: %w", err)
		}
	}

	s.rounds++
	reward := s.engine.Reward()
	if n := len(steps); n > 0 {
		steps[n-1].Reward = float64(reward)
	}
	result := RoundResult{
		Round:   s.rounds,
		Outcome: s.engine.Outcome(),
		Reward:  reward,
		Steps:   steps,
		Player:  s.engine.PlayerHand(),
		Dealer:  s.engine.DealerHand(),
	}
	if len(steps) > 0 {
		result.FirstState = steps[0].State
		result.FirstAction = steps[0].Action
	}

	s.learn(steps)
	if err := s.record(result); err != nil {
		return result, err
	}
	s.stats.Add(roundStats(result))

	s.logger.Debug("Round complete",
		"round", s.rounds,
		"outcome", result.Outcome,
		"player", evaluator.Value(result.Player),
		"dealer", evaluator.Value(result.Dealer))

	s.pause(ctx)
	return result, nil
}

func (s *Session) learn(steps []agent.Transition) {
	if s.learner == nil || !s.learner.Training() {
		return
	}
	switch s.cfg.Method {
	case MethodMC:
		if len(steps) > 0 {
			s.learner.UpdateEpisode(steps, agent.MonteCarloGamma)
		}
	default:
		for _, t := range steps {
			s.learner.Observe(t)
		}
	}
	s.learner.DecayEpsilon()
}

func (s *Session) record(r RoundResult) error {
	if s.trace == nil || !r.Decided() {
		return nil
	}
	steps := r.Steps
	if s.cfg.LogMode == tracelog.ModeFirst {
		steps = steps[:1]
	}
	rows := make([]tracelog.Row, len(steps))
	for i, t := range steps {
		rows[i] = tracelog.Row{
			PlayerValue: t.State.PlayerTotal,
			DealerCard:  t.State.DealerUpcard,
			Ace:         t.State.UsableAce,
			Action:      t.Action.LogToken(),
			Reward:      r.Reward,
		}
	}
	if err := s.trace.Append(rows...); err != nil {
		return fmt.Errorf("record round %d: %w", r.Round, err)
	}
	return nil
}

func roundStats(r RoundResult) statistics.RoundResult {
	out := statistics.RoundResult{
		Reward:     r.Reward,
		Natural:    evaluator.IsBlackjack(r.Player),
		PlayerBust: evaluator.IsBust(r.Player),
		DealerBust: evaluator.IsBust(r.Dealer),
	}
	for _, t := range r.Steps {
		if t.Action == game.Hit {
			out.Hits++
		} else {
			out.Stands++
		}
	}
	return out
}

// pause waits for the configured delay or until ctx is done.
func (s *Session) pause(ctx context.Context) {
	if s.cfg.Delay <= 0 {
		return
	}
	done := make(chan struct{})
	timer := s.cfg.Clock.AfterFunc(s.cfg.Delay, func() {
		close(done)
	})
	defer timer.Stop()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Run plays rounds until the count is reached or ctx is cancelled, calling
// progress periodically and once at the end.
func (s *Session) Run(ctx context.Context, rounds int, progress func(Progress)) (*statistics.Statistics, error) {
	if rounds <= 0 {
		return nil, errors.New("rounds must be > 0")
	}
	every := s.cfg.ProgressEvery
	if every <= 0 {
		every = max(rounds/100, 1)
	}

	start := s.cfg.Clock.Now()
	report := func(i int) {
		if progress != nil {
			progress(s.progress(i, rounds, start))
		}
	}

	for i := 1; i <= rounds; i++ {
		if _, err := s.PlayRound(ctx); err != nil {
			return s.stats, err
		}
		if i%every == 0 && i != rounds {
			report(i)
		}
	}
	report(rounds)

	if err := s.stats.Validate(); err != nil {
		return s.stats, fmt.Errorf("statistics validation failed: %w", err)
	}
	s.logger.Info("Session complete",
		"rounds", s.stats.Rounds,
		"winRate", fmt.Sprintf("%.2f%%", s.stats.WinRate()),
		"elapsed", s.cfg.Clock.Since(start))
	return s.stats, nil
}

func (s *Session) progress(round, rounds int, start time.Time) Progress {
	p := Progress{
		Round:   round,
		Rounds:  rounds,
		WinRate: s.stats.WinRate(),
		Elapsed: s.cfg.Clock.Since(start),
	}
	if s.learner != nil {
		p.Epsilon = s.learner.Epsilon()
		p.States = s.learner.Table().Size()
	}
	return p
}
