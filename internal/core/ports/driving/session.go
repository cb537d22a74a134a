package driving

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// CreateSessionRequest opens a document for editing.
// Exactly one of Sources, Segments or Text supplies the document.
type CreateSessionRequest struct {
	Name       string   `json:"name,omitempty"`
	ClientID   string   `json:"client_id,omitempty"`
	TMIDs      []string `json:"tm_ids,omitempty"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang,omitempty"`

	// Sources are pre-segmented source strings
	Sources []string `json:"sources,omitempty"`

	// Segments resume a previous project
	Segments []domain.Segment `json:"segments,omitempty"`

	// Text is raw text split with Delimiter (sentence by default)
	Text      string                  `json:"text,omitempty"`
	Delimiter domain.SegmentDelimiter `json:"delimiter,omitempty"`

	// Settings override the default editor profile
	Settings *domain.EditorSettings `json:"settings,omitempty"`
}

// SessionService manages editor sessions
type SessionService interface {
	// Create opens a new session and scores its segments
	Create(ctx context.Context, req CreateSessionRequest) (*domain.SessionInfo, error)

	// Get summarises a session
	Get(ctx context.Context, id string) (*domain.SessionInfo, error)

	// Delete closes a session and drops its snapshot
	Delete(ctx context.Context, id string) error

	// Segments lists segments, optionally filtered by status
	Segments(ctx context.Context, id string, status domain.SegmentStatus) ([]domain.Segment, error)

	// UpdateTarget edits the target of a segment
	UpdateTarget(ctx context.Context, id string, segmentID int, target string) (*domain.Segment, error)

	// ApplyTMMatch copies a TM entry target into a segment
	ApplyTMMatch(ctx context.Context, id string, segmentID int, entry domain.TMEntry) (*domain.Segment, error)

	// Confirm confirms a segment
	Confirm(ctx context.Context, id string, segmentID int) (*domain.ConfirmResult, error)

	// ApplyAllExactMatches fills new segments that have exact matches
	ApplyAllExactMatches(ctx context.Context, id string) (int, error)

	// Navigate moves the active-segment cursor
	Navigate(ctx context.Context, id string, dir domain.NavigateDirection) (int, error)

	// SetActive sets the active-segment cursor
	SetActive(ctx context.Context, id string, index int) error

	// Analysis prices the document; wordRate <= 0 uses the session setting
	Analysis(ctx context.Context, id string, wordRate float64) (*domain.AnalysisData, error)

	// TMMatches returns ranked fuzzy matches for a segment
	TMMatches(ctx context.Context, id string, segmentID int) ([]domain.TMMatch, error)

	// TermMatches returns termbase entries occurring in a segment
	TermMatches(ctx context.Context, id string, segmentID int) ([]domain.TermbaseEntry, error)

	// RunQA runs every enabled check over the document
	RunQA(ctx context.Context, id string) ([]domain.QAIssue, error)

	// Issues returns the current QA issues
	Issues(ctx context.Context, id string) ([]domain.QAIssue, error)

	// SetIssueIgnored flags an issue by its position in the issue list
	SetIssueIgnored(ctx context.Context, id string, index int, ignored bool) error

	// ImportTMEntries adds entries to the session working set and persists
	// them to the primary TM
	ImportTMEntries(ctx context.Context, id string, entries []domain.TMEntry) (int, error)

	// Snapshot returns the full restorable state of a session
	Snapshot(ctx context.Context, id string) (*domain.SessionSnapshot, error)
}
