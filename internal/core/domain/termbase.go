package domain

import "time"

// TermbaseEntry is an approved source term and its translation
type TermbaseEntry struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Note   string `json:"note"`
}

// StoredTermbaseEntry is a persisted termbase entry.
// An empty ClientID is the global scope.
type StoredTermbaseEntry struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TermbaseEntry
}

// Client groups TMs and termbases for one customer
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Default client languages
const (
	DefaultClientSourceLang = "EN"
	DefaultClientTargetLang = "KO"
)

// ClientUsage reports how many resources reference a client
type ClientUsage struct {
	TMCount       int `json:"tm_count"`
	TermbaseCount int `json:"termbase_count"`
}
