package deck

import (
	"errors"
	"testing"

	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoeComposition(t *testing.T) {
	shoe := NewShoe(randutil.New(1), 6, 0.5)
	require.Equal(t, 312, shoe.Size())
	require.Equal(t, 312, shoe.CardsRemaining())

	counts := make(map[Card]int)
	for range shoe.Size() {
		c, err := shoe.Deal()
		require.NoError(t, err)
		counts[c]++
	}
	assert.Len(t, counts, 52)
	for c, n := range counts {
		assert.Equal(t, 6, n, "card %v", c)
	}
}

func TestShoeEmpty(t *testing.T) {
	shoe := NewShoe(randutil.New(2), 1, 1)
	for range CardsPerDeck {
		_, err := shoe.Deal()
		require.NoError(t, err)
	}
	_, err := shoe.Deal()
	assert.True(t, errors.Is(err, ErrEmptyShoe))
}

func TestShoeDeterministicWithSeed(t *testing.T) {
	a := NewShoe(randutil.New(42), 6, 0.5)
	b := NewShoe(randutil.New(42), 6, 0.5)
	for range 20 {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		require.Equal(t, ca, cb)
	}
}

func TestMaybeReshuffle(t *testing.T) {
	shoe := NewShoe(randutil.New(3), 6, 0.5)

	for range 155 {
		_, err := shoe.Deal()
		require.NoError(t, err)
	}
	assert.False(t, shoe.MaybeReshuffle(), "155 of 312 is below half")
	assert.Equal(t, 155, shoe.Consumed())

	_, err := shoe.Deal()
	require.NoError(t, err)
	assert.True(t, shoe.MaybeReshuffle(), "156 of 312 reaches half")
	assert.Equal(t, 0, shoe.Consumed())
	assert.Equal(t, 312, shoe.CardsRemaining())
}

func TestNewShoeDefaults(t *testing.T) {
	shoe := NewShoe(randutil.New(4), 0, 0)
	assert.Equal(t, DefaultDecks*CardsPerDeck, shoe.Size())
	assert.Equal(t, 0.5, shoe.penetration)
}
