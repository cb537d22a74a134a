package exchange

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

var _ driven.Segmenter = (*Segmenter)(nil)

var (
	newlineRun   = regexp.MustCompile(`\n+`)
	paragraphRun = regexp.MustCompile(`\n\n+`)
)

// Segmenter splits raw document text into trimmed, non-empty segments.
type Segmenter struct{}

// NewSegmenter creates a text segmenter.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment splits text by the given delimiter. Unknown delimiters fall back
// to sentence splitting.
func (s *Segmenter) Segment(text string, delimiter domain.SegmentDelimiter) []string {
	var parts []string
	switch delimiter {
	case domain.DelimiterNewline:
		parts = newlineRun.Split(text, -1)
	case domain.DelimiterParagraph:
		parts = paragraphRun.Split(text, -1)
	default:
		parts = splitSentences(text)
	}

	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// splitSentences cuts after a terminator that is followed by whitespace,
// dropping the whitespace run.
func splitSentences(text string) []string {
	runes := []rune(text)
	var parts []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		parts = append(parts, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}
