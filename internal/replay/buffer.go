// Package replay provides a bounded experience buffer with uniform sampling.
package replay

import "math/rand/v2"

// DefaultCapacity is the number of transitions kept before the oldest are evicted.
const DefaultCapacity = 10000

// Buffer is a fixed-capacity FIFO ring. Adding beyond capacity overwrites the
// oldest entry. It is not safe for concurrent use.
type Buffer[T any] struct {
	items []T
	start int
	size  int
	rng   *rand.Rand
	added int64
}

// New creates a buffer holding at most capacity items.
func New[T any](capacity int, rng *rand.Rand) *Buffer[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer[T]{
		items: make([]T, capacity),
		rng:   rng,
	}
}

// Add appends item, evicting the oldest entry when full.
func (b *Buffer[T]) Add(item T) {
	b.added++
	if b.size < len(b.items) {
		b.items[(b.start+b.size)%len(b.items)] = item
		b.size++
		return
	}
	b.items[b.start] = item
	b.start = (b.start + 1) % len(b.items)
}

// Sample returns min(k, Len()) distinct entries chosen uniformly at random.
func (b *Buffer[T]) Sample(k int) []T {
	if k > b.size {
		k = b.size
	}
	if k <= 0 {
		return nil
	}
	// partial Fisher-Yates over logical indices
	idx := make([]int, b.size)
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		j := i + b.rng.IntN(b.size-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = b.at(idx[i])
	}
	return out
}

// Items returns the contents from oldest to newest.
func (b *Buffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

func (b *Buffer[T]) at(i int) T {
	return b.items[(b.start+i)%len(b.items)]
}

// Len returns the number of stored items.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Added returns the total number of Add calls, evicted entries included.
func (b *Buffer[T]) Added() int64 { return b.added }
