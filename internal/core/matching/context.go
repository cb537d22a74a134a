package matching

import "github.com/catforge/cat-core/internal/core/domain"

// Matcher extends plain scoring with neighbouring-segment context.
type Matcher struct {
	scorer Scorer
}

// NewMatcher creates a matcher. A nil scorer falls back to PlainScorer.
func NewMatcher(scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = PlainScorer{}
	}
	return &Matcher{scorer: scorer}
}

// Scorer returns the scorer backing the matcher.
func (m *Matcher) Scorer() Scorer {
	return m.scorer
}

// MatchRate returns the plain match rate of a and b.
func (m *Matcher) MatchRate(a, b string) int {
	return m.scorer.MatchRate(a, b)
}

// ContextMatchRate scores the source at index against entries, returning 101
// when an exact match is also anchored by a neighbouring source.
func (m *Matcher) ContextMatchRate(index int, sources []string, entries []domain.TMEntry) int {
	_, rate := m.FindBestMatchWithContext(index, sources, entries)
	return rate
}

// FindBestMatchWithContext returns the first context-anchored exact match, or
// else the first entry reaching the best plain rate. The entry is nil when no
// entry scores above zero or index is out of range.
func (m *Matcher) FindBestMatchWithContext(index int, sources []string, entries []domain.TMEntry) (*domain.TMEntry, int) {
	if index < 0 || index >= len(sources) {
		return nil, 0
	}
	source := sources[index]

	var best *domain.TMEntry
	bestRate := 0
	for i := range entries {
		entry := &entries[i]
		rate := m.scorer.MatchRate(source, entry.Source)

		if rate == domain.ExactMatchRate && m.hasContext(index, sources, entry) {
			match := *entry
			return &match, domain.ContextMatchRate
		}
		if rate > bestRate {
			best = entry
			bestRate = rate
		}
	}

	if best == nil {
		return nil, 0
	}
	match := *best
	return &match, bestRate
}

// hasContext reports whether either recorded neighbour matches exactly.
// An empty anchor never matches.
func (m *Matcher) hasContext(index int, sources []string, entry *domain.TMEntry) bool {
	if index > 0 && entry.PrevSource != "" &&
		m.scorer.MatchRate(sources[index-1], entry.PrevSource) == domain.ExactMatchRate {
		return true
	}
	if index < len(sources)-1 && entry.NextSource != "" &&
		m.scorer.MatchRate(sources[index+1], entry.NextSource) == domain.ExactMatchRate {
		return true
	}
	return false
}

// MatchRates computes the load-time match rate of every source.
func (m *Matcher) MatchRates(sources []string, entries []domain.TMEntry) []int {
	rates := make([]int, len(sources))
	if len(entries) == 0 {
		return rates
	}
	for i := range sources {
		rates[i] = m.ContextMatchRate(i, sources, entries)
	}
	return rates
}

// CreateTMEntryWithContext builds an entry from the segment at index, anchored
// to the sources of its neighbours.
func CreateTMEntryWithContext(index int, segments []domain.Segment) domain.TMEntry {
	seg := segments[index]
	entry := domain.TMEntry{Source: seg.Source, Target: seg.Target}
	if index > 0 {
		entry.PrevSource = segments[index-1].Source
	}
	if index < len(segments)-1 {
		entry.NextSource = segments[index+1].Source
	}
	return entry
}

// Sources returns the source text of each segment in order.
func Sources(segments []domain.Segment) []string {
	sources := make([]string, len(segments))
	for i, seg := range segments {
		sources[i] = seg.Source
	}
	return sources
}
