// Package policy provides fixed decision rules used as baselines and as
// generators of training logs.
package policy

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/blackjackbots/internal/game"
)

// Policy chooses an action for a state.
type Policy interface {
	Decide(s game.State) game.Action
}

// Func adapts a function to Policy.
type Func func(game.State) game.Action

func (f Func) Decide(s game.State) game.Action { return f(s) }

// BasicStrategy is the hit/stand subset of standard basic strategy.
type BasicStrategy struct{}

func (BasicStrategy) Decide(s game.State) game.Action {
	up := s.DealerUpcard
	if s.UsableAce {
		switch {
		case s.PlayerTotal >= 19:
			return game.Stand
		case s.PlayerTotal == 18 && up <= 8:
			return game.Stand
		default:
			return game.Hit
		}
	}
	switch {
	case s.PlayerTotal >= 17:
		return game.Stand
	case s.PlayerTotal >= 13:
		if up >= 7 {
			return game.Hit
		}
		return game.Stand
	case s.PlayerTotal == 12:
		if up >= 4 && up <= 6 {
			return game.Stand
		}
		return game.Hit
	default:
		return game.Hit
	}
}

// Random picks uniformly between the actions.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a random policy drawing from rng.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Decide(game.State) game.Action {
	return game.Actions[r.rng.IntN(len(game.Actions))]
}

// StandOn stands once the player total reaches the threshold.
type StandOn int

func (t StandOn) Decide(s game.State) game.Action {
	if s.PlayerTotal >= int(t) {
		return game.Stand
	}
	return game.Hit
}

// Named names the built-in policies.
var Named = []string{"basic", "random", "stand17"}

// ByName returns a built-in policy.
func ByName(name string, rng *rand.Rand) (Policy, error) {
	switch name {
	case "basic":
		return BasicStrategy{}, nil
	case "random":
		return NewRandom(rng), nil
	case "stand17":
		return StandOn(17), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
