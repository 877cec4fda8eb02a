// Package agent implements a tabular Q-learning player.
//
// The agent keeps one action-value record per game.State, explores with an
// epsilon-greedy policy while training, and learns either online from a
// replay buffer of terminal and non-terminal transitions, offline from rows
// of a training log, or from whole episodes using Monte-Carlo returns.
//
// An Agent is owned by a single goroutine; callers running several sessions
// in parallel give each one its own Agent.
package agent

import (
	"io"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/replay"
)

// Transition is one observed step. A nil Next marks the end of a round.
type Transition struct {
	State  game.State
	Action game.Action
	Reward float64
	Next   *game.State
}

// Terminal reports whether the transition ended the round.
func (t Transition) Terminal() bool { return t.Next == nil }

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Agent) {
		a.logger = logger.WithPrefix("agent")
	}
}

// Agent is an epsilon-greedy Q-learner.
type Agent struct {
	cfg      Config
	q        *QTable
	buffer   *replay.Buffer[Transition]
	rng      *rand.Rand
	epsilon  float64
	training bool
	updates  int64
	logger   *log.Logger
}

// New validates cfg and returns an agent in training mode.
func New(cfg Config, rng *rand.Rand, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		cfg:      cfg,
		q:        NewQTable(),
		buffer:   replay.New[Transition](cfg.BufferCapacity, rng),
		rng:      rng,
		epsilon:  cfg.Epsilon,
		training: true,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the agent's hyper-parameters.
func (a *Agent) Config() Config { return a.cfg }

// Table exposes the value table.
func (a *Agent) Table() *QTable { return a.q }

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 { return a.epsilon }

// Training reports whether exploration is enabled.
func (a *Agent) Training() bool { return a.training }

// SetTraining toggles exploration. With training off the agent always exploits.
func (a *Agent) SetTraining(on bool) { a.training = on }

// BufferLen returns the number of stored transitions.
func (a *Agent) BufferLen() int { return a.buffer.Len() }

// Updates returns the number of value updates applied so far.
func (a *Agent) Updates() int64 { return a.updates }

// ChooseAction picks an action for s: uniformly random with probability
// epsilon while training, otherwise the best-valued action.
func (a *Agent) ChooseAction(s game.State) game.Action {
	if a.training && a.rng.Float64() < a.epsilon {
		return game.Actions[a.rng.IntN(len(game.Actions))]
	}
	return a.q.Values(s).Best()
}

// Decide implements policy.Policy using ChooseAction.
func (a *Agent) Decide(s game.State) game.Action {
	return a.ChooseAction(s)
}

// Remember stores t in the replay buffer.
func (a *Agent) Remember(t Transition) {
	a.buffer.Add(t)
}

// Observe stores t and runs one replay update.
func (a *Agent) Observe(t Transition) {
	a.Remember(t)
	a.LearnFromReplay()
}

// LearnFromReplay samples a batch and applies the temporal-difference update
// to each transition. It does nothing until the buffer holds BatchSize entries.
func (a *Agent) LearnFromReplay() {
	if a.buffer.Len() < a.cfg.BatchSize {
		return
	}
	for _, t := range a.buffer.Sample(a.cfg.BatchSize) {
		a.update(t)
	}
}

func (a *Agent) update(t Transition) {
	target := t.Reward
	if t.Next != nil {
		target += a.cfg.Gamma * a.q.Values(*t.Next).Max()
	}
	v := a.q.Values(t.State)
	q := v.Get(t.Action)
	v.Set(t.Action, q+a.cfg.Alpha*(target-q))
	a.updates++
}

// DecayEpsilon multiplies epsilon by the decay rate, never going below
// EpsilonMin and never increasing.
func (a *Agent) DecayEpsilon() {
	next := math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)
	if next < a.epsilon {
		a.epsilon = next
	}
}

// Snapshot returns the table entries in a stable order.
func (a *Agent) Snapshot() []Entry {
	return a.q.Entries()
}
