// Package randutil derives reproducible random sources from a single game seed.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	return Stream(seed, 0)
}

// Stream returns an independent generator for the given stream number. The
// dealer uses stream 0 and each computer player uses its own id plus one, so a
// single seed reproduces the whole game without sharing a generator between
// goroutines.
func Stream(seed int64, stream uint64) *rand.Rand {
	u := uint64(seed) + stream*goldenRatio64
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns seed unless it is zero, in which case a time-based seed is
// generated. The second value reports whether the seed was generated.
func Seed(seed int64) (int64, bool) {
	if seed != 0 {
		return seed, false
	}
	return time.Now().UnixNano(), true
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
