package matching

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of scored pairs a CachedScorer retains.
const DefaultCacheSize = 10000

// Scorer computes the plain match rate between two strings.
type Scorer interface {
	MatchRate(a, b string) int
}

// PlainScorer scores every pair from scratch.
type PlainScorer struct{}

// MatchRate implements Scorer.
func (PlainScorer) MatchRate(a, b string) int {
	return MatchRate(a, b)
}

// Verify interface compliance
var (
	_ Scorer = PlainScorer{}
	_ Scorer = (*CachedScorer)(nil)
)

// CachedScorer memoises match rates per ordered (a, b) pair.
// Results are identical to MatchRate. Safe for concurrent use.
type CachedScorer struct {
	cache *lru.Cache
}

type pairKey struct {
	a, b string
}

// NewCachedScorer creates a scorer remembering up to size pairs.
func NewCachedScorer(size int) (*CachedScorer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create match cache: %w", err)
	}
	return &CachedScorer{cache: cache}, nil
}

// MatchRate implements Scorer.
func (s *CachedScorer) MatchRate(a, b string) int {
	if a == b {
		return 100
	}
	key := pairKey{a: a, b: b}
	if v, ok := s.cache.Get(key); ok {
		return v.(int)
	}
	rate := MatchRate(a, b)
	s.cache.Add(key, rate)
	return rate
}

// Len returns the number of cached pairs.
func (s *CachedScorer) Len() int {
	return s.cache.Len()
}
