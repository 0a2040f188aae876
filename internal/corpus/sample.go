package corpus

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// DefaultSampleFraction is the share of the hash space kept in fast mode.
const DefaultSampleFraction = 0.1

// Sampler keeps a deterministic subset of the corpus chosen by path hash.
// The decision depends only on the path, so every implementation in a run is
// measured over the same files.
type Sampler struct {
	limit uint64
}

// NewSampler returns a sampler keeping roughly fraction of all paths.
// Fractions outside (0, 1] are clamped.
func NewSampler(fraction float64) *Sampler {
	switch {
	case fraction <= 0:
		return &Sampler{limit: 0}
	case fraction >= 1:
		return &Sampler{limit: math.MaxUint64}
	}
	return &Sampler{limit: uint64(fraction * math.MaxUint64)}
}

// Keep reports whether path belongs to the sampled subset.
func (s *Sampler) Keep(path string) bool {
	if s == nil {
		return true
	}
	if s.limit == math.MaxUint64 {
		return true
	}
	return xxhash.Sum64String(path) < s.limit
}
