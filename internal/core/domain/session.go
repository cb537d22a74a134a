package domain

import "time"

// SegmentDelimiter selects how raw text is split into segments
type SegmentDelimiter string

const (
	DelimiterSentence  SegmentDelimiter = "sentence"
	DelimiterNewline   SegmentDelimiter = "newline"
	DelimiterParagraph SegmentDelimiter = "paragraph"
)

// Valid reports whether d is a known delimiter
func (d SegmentDelimiter) Valid() bool {
	switch d {
	case DelimiterSentence, DelimiterNewline, DelimiterParagraph:
		return true
	}
	return false
}

// NavigateDirection moves the active-segment cursor
type NavigateDirection string

const (
	NavigatePrev NavigateDirection = "prev"
	NavigateNext NavigateDirection = "next"
)

// EditorSettings are the per-session editing preferences
type EditorSettings struct {
	AutoPropagation bool      `json:"auto_propagation"`
	InstantQA       bool      `json:"instant_qa"`
	WordRate        float64   `json:"word_rate"`
	FuzzyMinRate    int       `json:"fuzzy_min_rate"`
	FuzzyLimit      int       `json:"fuzzy_limit"`
	QAChecks        []QACheck `json:"qa_checks"`
}

// DefaultEditorSettings returns the settings used when no profile is given
func DefaultEditorSettings() EditorSettings {
	return EditorSettings{
		AutoPropagation: true,
		InstantQA:       true,
		WordRate:        500,
		FuzzyMinRate:    50,
		FuzzyLimit:      5,
		QAChecks:        DefaultQAChecks(),
	}
}

// SessionSnapshot is the restorable state of an editor session
type SessionSnapshot struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	ClientID    string         `json:"client_id,omitempty"`
	TMIDs       []string       `json:"tm_ids,omitempty"`
	SourceLang  string         `json:"source_lang,omitempty"`
	TargetLang  string         `json:"target_lang,omitempty"`
	Settings    EditorSettings `json:"settings"`
	Segments    []Segment      `json:"segments"`
	ActiveIndex int            `json:"active_index"`
	Issues      []QAIssue      `json:"issues"`

	// AddedEntries are working-set entries added during the session. TM
	// entries and termbase are reloaded from their stores on restore.
	AddedEntries []TMEntry `json:"added_entries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryTMID returns the container that receives confirmed entries, if any
func (s *SessionSnapshot) PrimaryTMID() string {
	if len(s.TMIDs) == 0 {
		return ""
	}
	return s.TMIDs[0]
}

// ConfirmResult describes the effects of a confirm.
type ConfirmResult struct {
	// Confirmed is false when the segment had no target
	Confirmed bool `json:"confirmed"`

	// Propagated lists the ids of segments that received the translation
	Propagated []int `json:"propagated,omitempty"`

	// EntryAdded is the TM entry appended to the working set, if any
	EntryAdded *TMEntry `json:"entry_added,omitempty"`

	// Issues are the instant QA results for the segment
	Issues []QAIssue `json:"issues,omitempty"`

	// Active is the cursor after the confirm
	Active int `json:"active"`
}

// SessionInfo summarises an editor session
type SessionInfo struct {
	ID          string           `json:"id"`
	Name        string           `json:"name,omitempty"`
	ClientID    string           `json:"client_id,omitempty"`
	TMIDs       []string         `json:"tm_ids,omitempty"`
	SourceLang  string           `json:"source_lang,omitempty"`
	TargetLang  string           `json:"target_lang,omitempty"`
	ActiveIndex int              `json:"active_index"`
	Stats       TranslationStats `json:"stats"`
	TotalWords  int              `json:"total_words"`
	TMEntries   int              `json:"tm_entries"`
	IssueCount  int              `json:"issue_count"`
}
