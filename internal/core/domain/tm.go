package domain

import "time"

// TMEntry is a source/target pair held by a translation memory.
// PrevSource and NextSource anchor the entry to the neighbouring segments it
// was confirmed between; an empty value means no anchor.
type TMEntry struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	PrevSource string `json:"prev_source,omitempty"`
	NextSource string `json:"next_source,omitempty"`
}

// TMMatch is an entry scored against a query
type TMMatch struct {
	TMEntry
	MatchRate int `json:"match_rate"`
}

// Match rate constants
const (
	// ExactMatchRate is a full source match
	ExactMatchRate = 100
	// ContextMatchRate is an exact match whose neighbouring segment also matches
	ContextMatchRate = 101
)

// TranslationMemory is a named container of TM entries
type TranslationMemory struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id,omitempty"`
	Name        string    `json:"name"`
	SourceLang  string    `json:"source_lang"`
	TargetLangs []string  `json:"target_langs"`
	Note        string    `json:"note,omitempty"`
	EntryCount  int       `json:"entry_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredTMEntry is a persisted TM entry inside a container
type StoredTMEntry struct {
	ID         string    `json:"id"`
	TMID       string    `json:"tm_id"`
	TargetLang string    `json:"target_lang"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	TMEntry
}

// TMUpdate holds optional container changes
type TMUpdate struct {
	Name        *string  `json:"name,omitempty"`
	SourceLang  *string  `json:"source_lang,omitempty"`
	TargetLangs []string `json:"target_langs,omitempty"`
	Note        *string  `json:"note,omitempty"`
}

// Apply copies the set fields onto tm
func (u TMUpdate) Apply(tm *TranslationMemory) {
	if u.Name != nil {
		tm.Name = *u.Name
	}
	if u.SourceLang != nil {
		tm.SourceLang = *u.SourceLang
	}
	if u.TargetLangs != nil {
		tm.TargetLangs = u.TargetLangs
	}
	if u.Note != nil {
		tm.Note = *u.Note
	}
}
