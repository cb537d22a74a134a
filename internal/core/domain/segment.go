package domain

import "strings"

// SegmentStatus is the workflow state of a segment
type SegmentStatus string

const (
	SegmentStatusNew        SegmentStatus = "new"
	SegmentStatusTranslated SegmentStatus = "translated"
	SegmentStatusConfirmed  SegmentStatus = "confirmed"
)

// Valid reports whether s is one of the known statuses
func (s SegmentStatus) Valid() bool {
	switch s {
	case SegmentStatusNew, SegmentStatusTranslated, SegmentStatusConfirmed:
		return true
	}
	return false
}

// Segment is one translatable unit of a loaded document.
// Source never changes after creation. MatchRate is captured at load time
// and is not recomputed when the target is edited.
type Segment struct {
	ID        int           `json:"id"`
	Source    string        `json:"source"`
	Target    string        `json:"target"`
	Status    SegmentStatus `json:"status"`
	MatchRate int           `json:"match_rate"`
}

// StatusForTarget returns the status implied by editing a segment's target
func StatusForTarget(target string) SegmentStatus {
	if target == "" {
		return SegmentStatusNew
	}
	return SegmentStatusTranslated
}

// TranslationStats summarises segment statuses of a document
type TranslationStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Translated int `json:"translated"`
	Confirmed  int `json:"confirmed"`
	// Progress is the rounded percentage of confirmed segments
	Progress int `json:"progress"`
}

// ComputeStats counts segments per status
func ComputeStats(segments []Segment) TranslationStats {
	stats := TranslationStats{Total: len(segments)}
	for _, seg := range segments {
		switch seg.Status {
		case SegmentStatusNew:
			stats.New++
		case SegmentStatusTranslated:
			stats.Translated++
		case SegmentStatusConfirmed:
			stats.Confirmed++
		}
	}
	if stats.Total > 0 {
		stats.Progress = roundHalfUp(float64(stats.Confirmed) / float64(stats.Total) * 100)
	}
	return stats
}

// CountWords counts whitespace-separated words
func CountWords(text string) int {
	return len(strings.Fields(text))
}
