package replay

import (
	"testing"

	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEvictsOldest(t *testing.T) {
	b := New[int](DefaultCapacity, randutil.New(1))
	for i := 0; i < DefaultCapacity+5; i++ {
		b.Add(i)
	}

	require.Equal(t, DefaultCapacity, b.Len())
	items := b.Items()
	assert.Equal(t, 5, items[0], "the five oldest entries are gone")
	assert.Equal(t, DefaultCapacity+4, items[len(items)-1])
	for _, v := range items {
		assert.GreaterOrEqual(t, v, 5)
	}
	assert.Equal(t, int64(DefaultCapacity+5), b.Added())
}

func TestBufferSmallCapacity(t *testing.T) {
	b := New[string](3, randutil.New(1))
	for _, s := range []string{"a", "b", "c", "d"} {
		b.Add(s)
	}
	assert.Equal(t, []string{"b", "c", "d"}, b.Items())
	assert.Equal(t, 3, b.Cap())
}

func TestSampleWithoutReplacement(t *testing.T) {
	b := New[int](100, randutil.New(9))
	for i := 0; i < 50; i++ {
		b.Add(i)
	}

	got := b.Sample(32)
	require.Len(t, got, 32)
	seen := make(map[int]bool)
	for _, v := range got {
		assert.False(t, seen[v], "duplicate %d", v)
		seen[v] = true
	}
}

func TestSampleMoreThanSize(t *testing.T) {
	b := New[int](10, randutil.New(2))
	b.Add(1)
	b.Add(2)
	b.Add(3)

	got := b.Sample(32)
	assert.ElementsMatch(t, []int{1, 2, 3}, got)
	assert.Empty(t, New[int](10, randutil.New(2)).Sample(5))
}

func TestSampleCoversWrappedRing(t *testing.T) {
	b := New[int](4, randutil.New(3))
	for i := 0; i < 7; i++ {
		b.Add(i)
	}
	assert.ElementsMatch(t, []int{3, 4, 5, 6}, b.Sample(4))
}
