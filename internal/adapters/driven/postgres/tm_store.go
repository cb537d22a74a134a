package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TMStore = (*TMStore)(nil)

// TMStore implements driven.TMStore using PostgreSQL
type TMStore struct {
	db *DB
}

// NewTMStore creates a new TMStore
func NewTMStore(db *DB) *TMStore {
	return &TMStore{db: db}
}

const tmColumns = `
	t.id, t.client_id, t.name, t.source_lang, t.target_langs, t.note, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM tm_entries e WHERE e.tm_id = t.id)`

func scanTM(row rowScanner) (*domain.TranslationMemory, error) {
	var tm domain.TranslationMemory
	var clientID sql.NullString
	var targetLangs pq.StringArray

	err := row.Scan(
		&tm.ID,
		&clientID,
		&tm.Name,
		&tm.SourceLang,
		&targetLangs,
		&tm.Note,
		&tm.CreatedAt,
		&tm.UpdatedAt,
		&tm.EntryCount,
	)
	if err != nil {
		return nil, err
	}
	tm.ClientID = clientID.String
	tm.TargetLangs = []string(targetLangs)
	if tm.TargetLangs == nil {
		tm.TargetLangs = []string{}
	}
	return &tm, nil
}

// SaveTM creates or updates a container
func (s *TMStore) SaveTM(ctx context.Context, tm *domain.TranslationMemory) error {
	query := `
		INSERT INTO translation_memories (id, client_id, name, source_lang, target_langs, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			name = EXCLUDED.name,
			source_lang = EXCLUDED.source_lang,
			target_langs = EXCLUDED.target_langs,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		tm.ID,
		nullString(tm.ClientID),
		tm.Name,
		tm.SourceLang,
		pq.Array(tm.TargetLangs),
		tm.Note,
		tm.CreatedAt,
		tm.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown client %q", domain.ErrInvalidInput, tm.ClientID)
	}
	if err != nil {
		return fmt.Errorf("save tm: %w", err)
	}
	return nil
}

// GetTM retrieves a container by ID
func (s *TMStore) GetTM(ctx context.Context, id string) (*domain.TranslationMemory, error) {
	query := `SELECT ` + tmColumns + ` FROM translation_memories t WHERE t.id = $1`

	tm, err := scanTM(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tm: %w", err)
	}
	return tm, nil
}

// ListTMs retrieves containers newest first
func (s *TMStore) ListTMs(ctx context.Context, clientID string) ([]*domain.TranslationMemory, error) {
	query := `SELECT ` + tmColumns + ` FROM translation_memories t`
	var args []any
	if clientID != "" {
		query += ` WHERE t.client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tms: %w", err)
	}
	defer rows.Close()

	var tms []*domain.TranslationMemory
	for rows.Next() {
		tm, err := scanTM(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tm: %w", err)
		}
		tms = append(tms, tm)
	}
	return tms, rows.Err()
}

// DeleteTM deletes a container; its entries cascade
func (s *TMStore) DeleteTM(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM translation_memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tm: %w", err)
	}
	return expectOne(result, domain.ErrNotFound)
}

// UpsertEntry inserts an entry or updates the one sharing
// (tm_id, source, target_lang)
func (s *TMStore) UpsertEntry(ctx context.Context, entry *domain.StoredTMEntry) (bool, error) {
	query := `
		INSERT INTO tm_entries (id, tm_id, source, target, target_lang, prev_source, next_source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tm_id, md5(source), target_lang) DO UPDATE SET
			target = EXCLUDED.target,
			prev_source = EXCLUDED.prev_source,
			next_source = EXCLUDED.next_source,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)
	`

	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.TMID,
		entry.Source,
		entry.Target,
		entry.TargetLang,
		entry.PrevSource,
		entry.NextSource,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID, &inserted)
	if isForeignKeyViolation(err) {
		return false, fmt.Errorf("%w: tm %s", domain.ErrNotFound, entry.TMID)
	}
	if err != nil {
		return false, fmt.Errorf("upsert entry: %w", err)
	}
	return inserted, nil
}

// InsertEntries saves a batch in one transaction. Entries whose source
// already exists for the language overwrite the stored target.
func (s *TMStore) InsertEntries(ctx context.Context, tmID, targetLang string, entries []domain.TMEntry) (int, error) {
	saved := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tm_entries (id, tm_id, source, target, target_lang, prev_source, next_source, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (tm_id, md5(source), target_lang) DO UPDATE SET
				target = EXCLUDED.target,
				updated_at = EXCLUDED.updated_at
		`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				domain.GenerateID(),
				tmID,
				e.Source,
				e.Target,
				targetLang,
				e.PrevSource,
				e.NextSource,
				now,
			); err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

const entryColumns = `id, tm_id, source, target, target_lang, prev_source, next_source, created_at, updated_at`

func scanEntry(row rowScanner) (*domain.StoredTMEntry, error) {
	var e domain.StoredTMEntry
	err := row.Scan(
		&e.ID,
		&e.TMID,
		&e.Source,
		&e.Target,
		&e.TargetLang,
		&e.PrevSource,
		&e.NextSource,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntry retrieves an entry by ID
func (s *TMStore) GetEntry(ctx context.Context, id string) (*domain.StoredTMEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM tm_entries WHERE id = $1`

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries retrieves the entries of a container, newest first
func (s *TMStore) ListEntries(ctx context.Context, tmID string) ([]*domain.StoredTMEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM tm_entries WHERE tm_id = $1 ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, tmID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.StoredTMEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry deletes an entry by ID
func (s *TMStore) DeleteEntry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tm_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return expectOne(result, domain.ErrNotFound)
}

// LoadEntries returns the entries of several containers in insertion order
func (s *TMStore) LoadEntries(ctx context.Context, tmIDs []string) ([]domain.TMEntry, error) {
	if len(tmIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, target, prev_source, next_source
		FROM tm_entries
		WHERE tm_id = ANY($1)
		ORDER BY created_at ASC, id
	`, pq.Array(tmIDs))
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TMEntry
	for rows.Next() {
		var e domain.TMEntry
		if err := rows.Scan(&e.Source, &e.Target, &e.PrevSource, &e.NextSource); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByClient returns how many containers belong to a client
func (s *TMStore) CountByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translation_memories WHERE client_id = $1`, clientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tms: %w", err)
	}
	return count, nil
}
