// Package randutil derives reproducible random sources from int64 seeds.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. Every shoe,
// replay buffer and exploration policy in the module draws from a source built
// here so a run can be replayed from its seed alone.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Stream returns an independent source for the n-th consumer of a seed, so a
// shoe and an agent built from the same run seed do not share a sequence.
func Stream(seed int64, n uint64) *rand.Rand {
	return New(int64(mix(uint64(seed) ^ (n+1)*goldenRatio64)))
}

// Resolve turns the CLI convention "0 means random" into a concrete seed that
// can be logged and reused.
func Resolve(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
