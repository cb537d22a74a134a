package driven

import "github.com/catforge/cat-core/internal/core/domain"

// Segmenter splits raw document text into source segments
type Segmenter interface {
	Segment(text string, delimiter domain.SegmentDelimiter) []string
}
