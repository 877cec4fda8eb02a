package game

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/evaluator"
)

// DefaultDealerStandsOn is the total at which the dealer stops drawing.
const DefaultDealerStandsOn = 17

// CardSource supplies cards to the engine. *deck.Shoe implements it.
type CardSource interface {
	Deal() (deck.Card, error)
}

// EngineOption configures an Engine during creation.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger.WithPrefix("engine")
	}
}

// WithDealerStandsOn changes the dealer's standing total.
func WithDealerStandsOn(total int) EngineOption {
	return func(e *Engine) {
		if total > 0 {
			e.standsOn = total
		}
	}
}

// Engine drives one blackjack round at a time.
type Engine struct {
	source   CardSource
	player   []deck.Card
	dealer   []deck.Card
	phase    Phase
	outcome  Outcome
	standsOn int
	logger   *log.Logger
}

// NewEngine creates an engine dealing from source.
func NewEngine(source CardSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:   source,
		player:   make([]deck.Card, 0, 8),
		dealer:   make([]deck.Card, 0, 8),
		phase:    PhaseDealing,
		standsOn: DefaultDealerStandsOn,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartRound clears both hands and deals player, player, dealer, dealer.
// A natural on either side resolves the round immediately.
func (e *Engine) StartRound() error {
	e.player = e.player[:0]
	e.dealer = e.dealer[:0]
	e.phase = PhaseDealing
	e.outcome = OutcomeNone

	for _, hand := range []*[]deck.Card{&e.player, &e.player, &e.dealer, &e.dealer} {
		if err := e.deal(hand); err != nil {
			return err
		}
	}

	e.logger.Debug("Round dealt",
		"player", formatCards(e.player),
		"playerTotal", evaluator.Value(e.player),
		"upcard", e.dealer[0])

	if evaluator.IsBlackjack(e.player) || evaluator.IsBlackjack(e.dealer) {
		e.resolve()
		return nil
	}
	e.phase = PhasePlayerTurn
	return nil
}

// Apply applies a player action. Hit deals one card and resolves the round on
// a bust (dealer wins) or on exactly 21 (player wins). Stand hands over to the
// dealer; call RunDealerTurn to finish the round.
func (e *Engine) Apply(a Action) error {
	if !a.Valid() {
		return &InvalidActionError{Token: fmt.Sprintf("action(%d)", uint8(a))}
	}
	if e.phase != PhasePlayerTurn {
		return invalidState(a.String(), e.phase)
	}

	switch a {
	case Hit:
		if err := e.deal(&e.player); err != nil {
			return err
		}
		total := evaluator.Value(e.player)
		e.logger.Debug("Player hits", "cards", formatCards(e.player), "total", total)
		if total >= evaluator.Blackjack {
			e.resolve()
		}
	case Stand:
		e.logger.Debug("Player stands", "total", evaluator.Value(e.player))
		e.phase = PhaseDealerTurn
	}
	return nil
}

// ApplyToken parses token and applies it.
func (e *Engine) ApplyToken(token string) error {
	a, err := ParseAction(token)
	if err != nil {
		return err
	}
	return e.Apply(a)
}

// RunDealerTurn draws for the dealer while the total is below the standing
// total, then resolves the round.
func (e *Engine) RunDealerTurn() error {
	if e.phase != PhaseDealerTurn {
		return invalidState("dealer turn", e.phase)
	}
	for evaluator.Value(e.dealer) < e.standsOn {
		if err := e.deal(&e.dealer); err != nil {
			return err
		}
	}
	e.logger.Debug("Dealer stands", "cards", formatCards(e.dealer), "total", evaluator.Value(e.dealer))
	e.resolve()
	return nil
}

func (e *Engine) resolve() {
	e.phase = PhaseResolved
	e.outcome = Resolve(e.player, e.dealer)
	e.logger.Debug("Round resolved", "outcome", e.outcome)
}

func (e *Engine) deal(hand *[]deck.Card) error {
	c, err := e.source.Deal()
	if err != nil {
		return fmt.Errorf("deal during %s: %w", e.phase, err)
	}
	*hand = append(*hand, c)
	return nil
}

// State returns the player's ace-adjusted total, the dealer upcard's base
// value and whether the player holds a usable ace.
func (e *Engine) State() State {
	s := State{
		PlayerTotal: evaluator.Value(e.player),
		UsableAce:   evaluator.UsableAce(e.player),
	}
	if len(e.dealer) > 0 {
		s.DealerUpcard = e.dealer[0].BaseValue()
	}
	return s
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Outcome returns the round outcome, or OutcomeNone before resolution.
func (e *Engine) Outcome() Outcome { return e.outcome }

// Reward returns the terminal reward, zero until the round is resolved.
func (e *Engine) Reward() int { return e.outcome.Reward() }

// Upcard returns the dealer's face-up card.
func (e *Engine) Upcard() (deck.Card, bool) {
	if len(e.dealer) == 0 {
		return deck.Card{}, false
	}
	return e.dealer[0], true
}

// PlayerHand returns a copy of the player's cards.
func (e *Engine) PlayerHand() []deck.Card {
	return append([]deck.Card(nil), e.player...)
}

// DealerHand returns a copy of the dealer's cards, hole card included.
func (e *Engine) DealerHand() []deck.Card {
	return append([]deck.Card(nil), e.dealer...)
}

func formatCards(cards []deck.Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
