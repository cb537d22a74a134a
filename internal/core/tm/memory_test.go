package tm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/matching"
)

func TestMemory_AppendAndEntries(t *testing.T) {
	m := New(nil, domain.TMEntry{Source: "a", Target: "1"})
	m.Append(domain.TMEntry{Source: "b", Target: "2"})
	m.AppendAll([]domain.TMEntry{{Source: "c", Target: "3"}, {Source: "d", Target: "4"}})

	require.Equal(t, 4, m.Len())
	entries := m.Entries()
	assert.Equal(t, []string{"a", "b", "c", "d"}, sources(entries))

	// Entries is a copy
	entries[0].Target = "changed"
	assert.Equal(t, "1", m.Entries()[0].Target)
}

func TestMemory_RemoveWhere(t *testing.T) {
	m := New(nil,
		domain.TMEntry{Source: "keep", Target: "1"},
		domain.TMEntry{Source: "drop", Target: "2"},
		domain.TMEntry{Source: "keep too", Target: "3"},
		domain.TMEntry{Source: "drop", Target: "4"},
	)

	removed := m.RemoveWhere(func(e domain.TMEntry) bool { return e.Source == "drop" })

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"keep", "keep too"}, sources(m.Entries()))
	assert.Equal(t, 0, m.RemoveWhere(func(domain.TMEntry) bool { return false }))
}

func TestMemory_ExistsExact(t *testing.T) {
	m := New(nil, domain.TMEntry{Source: "Save file", Target: "x"})

	assert.True(t, m.ExistsExact("Save file"))
	assert.False(t, m.ExistsExact("save file"))
	assert.False(t, m.ExistsExact("Save file "))
}

func TestMemory_FindRankedMatches(t *testing.T) {
	m := New(nil,
		domain.TMEntry{Source: "abcx", Target: "75-a"},
		domain.TMEntry{Source: "zzzz", Target: "0"},
		domain.TMEntry{Source: "abcd", Target: "100"},
		domain.TMEntry{Source: "abxx", Target: "50"},
		domain.TMEntry{Source: "abcy", Target: "75-b"},
		domain.TMEntry{Source: "abcz", Target: "75-c"},
		domain.TMEntry{Source: "abcw", Target: "75-d"},
		domain.TMEntry{Source: "abcv", Target: "75-e"},
	)

	matches := m.FindRankedMatches("abcd", DefaultMatchLimit, DefaultMinRate)

	require.Len(t, matches, 5)
	targets := make([]string, len(matches))
	for i, match := range matches {
		targets[i] = match.Target
	}
	assert.Equal(t, []string{"100", "75-a", "75-b", "75-c", "75-d"}, targets)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].MatchRate, matches[i].MatchRate)
	}

	all := m.FindRankedMatches("abcd", 100, DefaultMinRate)
	assert.Len(t, all, 7)
	for _, match := range all {
		assert.GreaterOrEqual(t, match.MatchRate, DefaultMinRate)
	}

	assert.Empty(t, m.FindRankedMatches("abcd", 0, DefaultMinRate))
	assert.Empty(t, New(nil).FindRankedMatches("abcd", 5, 50))
}

func TestMemory_BestPlainMatch(t *testing.T) {
	assert.Equal(t, 0, New(nil).BestPlainMatch("anything"))

	m := New(nil,
		domain.TMEntry{Source: "abxx", Target: "x", PrevSource: "prev"},
		domain.TMEntry{Source: "abcx", Target: "y"},
	)
	assert.Equal(t, 75, m.BestPlainMatch("abcd"))
}

func TestMemory_FirstExactMatch(t *testing.T) {
	m := New(nil,
		domain.TMEntry{Source: "Hello", Target: "first"},
		domain.TMEntry{Source: "hello", Target: "second"},
	)

	entry, ok := m.FirstExactMatch("HELLO")
	require.True(t, ok)
	assert.Equal(t, "first", entry.Target)

	_, ok = m.FirstExactMatch("Hello!")
	assert.False(t, ok)
}

func TestMemory_Search(t *testing.T) {
	m := New(nil,
		domain.TMEntry{Source: "Open File", Target: "파일 열기"},
		domain.TMEntry{Source: "Close", Target: "닫기"},
	)

	assert.Equal(t, []string{"Open File"}, sources(m.Search("file")))
	assert.Equal(t, []string{"Close"}, sources(m.Search("닫")))
	assert.Len(t, m.Search(""), 2)
	assert.Empty(t, m.Search("missing"))
}

func TestMemory_CachedScorer(t *testing.T) {
	scorer, err := matching.NewCachedScorer(32)
	require.NoError(t, err)

	m := New(scorer, domain.TMEntry{Source: "Hello World!", Target: "x"})
	assert.Equal(t, 92, m.BestPlainMatch("Hello world"))
	assert.Equal(t, 92, m.BestPlainMatch("Hello world"))
	assert.Equal(t, 1, scorer.Len())
}

func sources(entries []domain.TMEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Source
	}
	return out
}
