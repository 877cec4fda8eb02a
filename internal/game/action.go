package game

import "strings"

// Action is a player decision.
type Action uint8

const (
	Hit Action = iota
	Stand
)

// Actions lists every action in tie-break order: Hit is preferred when values are equal.
var Actions = [...]Action{Hit, Stand}

// String returns the action's canonical token.
func (a Action) String() string {
	switch a {
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	default:
		return "unknown"
	}
}

// LogToken is the token written to the training log, which spells stand as "stay".
func (a Action) LogToken() string {
	if a == Stand {
		return "stay"
	}
	return a.String()
}

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	return a == Hit || a == Stand
}

// ParseAction maps a token to an Action. It accepts "hit", "stand" and the
// log spelling "stay", case-insensitively.
func ParseAction(token string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "hit", "h":
		return Hit, nil
	case "stand", "stay", "s":
		return Stand, nil
	default:
		return 0, &InvalidActionError{Token: token}
	}
}

// Phase is the round's position in the state machine.
type Phase uint8

const (
	PhaseDealing Phase = iota
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseDealing:
		return "dealing"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseDealerTurn:
		return "dealer_turn"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome is the result of a resolved round.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	PlayerWin
	DealerWin
	Push
)

func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "player_win"
	case DealerWin:
		return "dealer_win"
	case Push:
		return "push"
	default:
		return "none"
	}
}

// Reward is the terminal reward for the player: +1, -1 or 0.
func (o Outcome) Reward() int {
	switch o {
	case PlayerWin:
		return 1
	case DealerWin:
		return -1
	default:
		return 0
	}
}

// State is the discretised view of a round used by policies and the Q-table.
// It is comparable and used directly as a map key.
type State struct {
	PlayerTotal  int
	DealerUpcard int
	UsableAce    bool
}
