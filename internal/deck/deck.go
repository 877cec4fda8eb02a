package deck

import (
	"errors"
	"math/rand/v2"
)

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

// DefaultDecks is the number of decks in a simulation shoe.
const DefaultDecks = 6

// DefaultPenetration is the consumed fraction that triggers a reshuffle.
const DefaultPenetration = 0.5

// ErrEmptyShoe is returned when a card is requested from an exhausted shoe.
// The reshuffle policy makes it unreachable in normal play.
var ErrEmptyShoe = errors.New("shoe is empty")

// Shoe is a multi-deck sequence of cards dealt from the front. It is
// regenerated wholesale once enough cards have been consumed.
type Shoe struct {
	decks       int
	penetration float64
	cards       []Card
	next        int
	rng         *rand.Rand
}

// NewShoe creates a shuffled shoe of decks standard decks. penetration is the
// fraction of the shoe that may be consumed before MaybeReshuffle regenerates
// it; values outside (0, 1] fall back to one half.
func NewShoe(rng *rand.Rand, decks int, penetration float64) *Shoe {
	if decks <= 0 {
		decks = DefaultDecks
	}
	if penetration <= 0 || penetration > 1 {
		penetration = DefaultPenetration
	}
	s := &Shoe{
		decks:       decks,
		penetration: penetration,
		cards:       make([]Card, 0, decks*CardsPerDeck),
		rng:         rng,
	}
	s.Generate()
	return s
}

// Generate rebuilds every card of the shoe and applies a uniform random
// permutation (Fisher-Yates).
func (s *Shoe) Generate() {
	s.cards = s.cards[:0]
	for range s.decks {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				s.cards = append(s.cards, NewCard(suit, rank))
			}
		}
	}
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
	s.next = 0
}

// Deal removes and returns the next card.
func (s *Shoe) Deal() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrEmptyShoe
	}
	card := s.cards[s.next]
	s.next++
	return card, nil
}

// MaybeReshuffle regenerates the shoe when the consumed share reaches the
// penetration threshold. It reports whether a reshuffle happened and is meant
// to be called once per round boundary.
func (s *Shoe) MaybeReshuffle() bool {
	if float64(s.next) < float64(s.Size())*s.penetration {
		return false
	}
	s.Generate()
	return true
}

// Size returns the number of cards in a full shoe.
func (s *Shoe) Size() int {
	return s.decks * CardsPerDeck
}

// Consumed returns how many cards were dealt since the last generation.
func (s *Shoe) Consumed() int {
	return s.next
}

// CardsRemaining returns the number of cards left in the shoe
func (s *Shoe) CardsRemaining() int {
	return len(s.cards) - s.next
}
