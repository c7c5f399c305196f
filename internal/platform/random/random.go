// Package random provides the simulation's randomness source behind an
// interface so that tests can script exact draw sequences.
package random

import (
	"math/rand"
	"sync"
)

// Source produces bounded random draws. All simulation randomness flows
// through a single shared Source so that draw order is reproducible for a
// given seed.
type Source interface {
	// Int32 returns a uniform value in [0, bound). A bound of 0 returns 0.
	Int32(bound uint32) int32
}

// LockedSource is a seeded Source safe for use from multiple goroutines.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocked creates a LockedSource with the given seed.
func NewLocked(seed int64) *LockedSource {
	return &LockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *LockedSource) Int32(bound uint32) int32 {
	if bound == 0 {
		return 0
	}
	s.mu.Lock()
	v := s.rng.Int31n(int32(bound))
	s.mu.Unlock()
	return v
}

// ShouldOccur reports a Bernoulli outcome with the given percent chance.
// 0 never occurs, 100 always does.
func ShouldOccur(src Source, percent uint32) bool {
	if percent >= 100 {
		return true
	}
	if percent == 0 {
		return false
	}
	return src.Int32(100) < int32(percent)
}
