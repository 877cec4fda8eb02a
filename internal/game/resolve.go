package game

import (
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/evaluator"
)

// Resolve determines the outcome of a finished round. The checks run in a
// fixed priority order and naturals and 21s are settled before totals are
// compared:
//
//  1. both naturals: push
//  2. player natural: player wins
//  3. dealer natural: dealer wins
//  4. player over 21: dealer wins
//  5. player at 21: player wins
//  6. dealer at 21: dealer wins
//  7. dealer over 21: player wins
//  8. higher total wins, equal totals push
func Resolve(player, dealer []deck.Card) Outcome {
	pBJ, dBJ := evaluator.IsBlackjack(player), evaluator.IsBlackjack(dealer)
	pv, dv := evaluator.Value(player), evaluator.Value(dealer)

	switch {
	case pBJ && dBJ:
		return Push
	case pBJ:
		return PlayerWin
	case dBJ:
		return DealerWin
	case pv > evaluator.Blackjack:
		return DealerWin
	case pv == evaluator.Blackjack:
		return PlayerWin
	case dv == evaluator.Blackjack:
		return DealerWin
	case dv > evaluator.Blackjack:
		return PlayerWin
	case pv > dv:
		return PlayerWin
	case dv > pv:
		return DealerWin
	default:
		return Push
	}
}
