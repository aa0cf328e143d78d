package rng

import "math/rand"

// Source is the only randomness the simulation consumes.
type Source interface {
	Intn(n int) int
}

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Pick returns a uniformly random element of items. items must be non-empty.
func Pick[T any](r Source, items []T) T {
	return items[r.Intn(len(items))]
}
