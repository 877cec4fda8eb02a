// Package evaluator scores blackjack hands.
//
// All functions are pure: they read a slice of cards and never retain or
// mutate it. Aces start at 11 and are demoted to 1, one at a time, while the
// total exceeds 21.
package evaluator

import "github.com/lox/blackjackbots/internal/deck"

// Blackjack is the target total.
const Blackjack = 21

// Value returns the ace-adjusted point total of cards.
func Value(cards []deck.Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c.BaseValue()
		if c.IsAce() {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack reports a natural: exactly two cards totalling 21.
func IsBlackjack(cards []deck.Card) bool {
	return len(cards) == 2 && Value(cards) == Blackjack
}

// IsBust reports whether the hand is over 21 after ace adjustment.
func IsBust(cards []deck.Card) bool {
	return Value(cards) > Blackjack
}

// UsableAce reports whether one ace can count as 11 without busting, i.e. the
// hand holds an ace and its hard total plus ten stays at or under 21.
func UsableAce(cards []deck.Card) bool {
	hard, ace := 0, false
	for _, c := range cards {
		if c.IsAce() {
			ace = true
			hard++
			continue
		}
		hard += c.BaseValue()
	}
	return ace && hard+10 <= Blackjack
}
