// Package tm holds the in-memory translation memory working set of a session.
package tm

import (
	"sort"
	"strings"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/matching"
)

// Ranked match defaults
const (
	DefaultMatchLimit = 5
	DefaultMinRate    = 50
)

// Memory is an ordered collection of TM entries.
// Not safe for concurrent use; the owning session serialises access.
type Memory struct {
	entries []domain.TMEntry
	scorer  matching.Scorer
}

// New creates a working set seeded with entries.
// A nil scorer falls back to matching.PlainScorer.
func New(scorer matching.Scorer, entries ...domain.TMEntry) *Memory {
	if scorer == nil {
		scorer = matching.PlainScorer{}
	}
	m := &Memory{scorer: scorer}
	m.entries = append(m.entries, entries...)
	return m
}

// Entries returns a copy of the entries in repository order.
func (m *Memory) Entries() []domain.TMEntry {
	out := make([]domain.TMEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Append adds an entry at the end.
func (m *Memory) Append(entry domain.TMEntry) {
	m.entries = append(m.entries, entry)
}

// AppendAll adds entries at the end, preserving their order.
func (m *Memory) AppendAll(entries []domain.TMEntry) {
	m.entries = append(m.entries, entries...)
}

// RemoveWhere drops every entry matching pred and returns how many were removed.
func (m *Memory) RemoveWhere(pred func(domain.TMEntry) bool) int {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if pred(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// clear the tail so dropped strings can be collected
	for i := len(kept); i < len(m.entries); i++ {
		m.entries[i] = domain.TMEntry{}
	}
	m.entries = kept
	return removed
}

// ExistsExact reports whether an entry has exactly this source.
// Comparison is case-sensitive.
func (m *Memory) ExistsExact(source string) bool {
	for _, e := range m.entries {
		if e.Source == source {
			return true
		}
	}
	return false
}

// FindRankedMatches scores every entry against source and returns at most
// limit matches with a rate of at least minRate, best first. Ties keep
// repository order.
func (m *Memory) FindRankedMatches(source string, limit, minRate int) []domain.TMMatch {
	matches := make([]domain.TMMatch, 0)
	if limit <= 0 {
		return matches
	}
	for _, e := range m.entries {
		rate := m.scorer.MatchRate(source, e.Source)
		if rate >= minRate {
			matches = append(matches, domain.TMMatch{TMEntry: e, MatchRate: rate})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchRate > matches[j].MatchRate
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// BestPlainMatch returns the highest plain rate over all entries, 0 when empty.
func (m *Memory) BestPlainMatch(source string) int {
	best := 0
	for _, e := range m.entries {
		if rate := m.scorer.MatchRate(source, e.Source); rate > best {
			best = rate
		}
	}
	return best
}

// FirstExactMatch returns the first entry whose plain rate against source is
// exactly 100.
func (m *Memory) FirstExactMatch(source string) (domain.TMEntry, bool) {
	for _, e := range m.entries {
		if m.scorer.MatchRate(source, e.Source) == domain.ExactMatchRate {
			return e, true
		}
	}
	return domain.TMEntry{}, false
}

// Search returns entries whose source or target contains term, ignoring case.
// An empty term returns every entry.
func (m *Memory) Search(term string) []domain.TMEntry {
	needle := strings.ToLower(term)
	out := make([]domain.TMEntry, 0)
	for _, e := range m.entries {
		if needle == "" ||
			strings.Contains(strings.ToLower(e.Source), needle) ||
			strings.Contains(strings.ToLower(e.Target), needle) {
			out = append(out, e)
		}
	}
	return out
}
