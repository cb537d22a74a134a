package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TermbaseStore = (*TermbaseStore)(nil)

// TermbaseStore implements driven.TermbaseStore using PostgreSQL.
// The global scope is stored as an empty client_id.
type TermbaseStore struct {
	db *DB
}

// NewTermbaseStore creates a new TermbaseStore
func NewTermbaseStore(db *DB) *TermbaseStore {
	return &TermbaseStore{db: db}
}

const termColumns = `id, client_id, source, target, note, created_at, updated_at`

func scanTerm(row rowScanner) (*domain.StoredTermbaseEntry, error) {
	var e domain.StoredTermbaseEntry
	err := row.Scan(&e.ID, &e.ClientID, &e.Source, &e.Target, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert inserts an entry or updates the one sharing (client, source)
func (s *TermbaseStore) Upsert(ctx context.Context, entry *domain.StoredTermbaseEntry) error {
	query := `
		INSERT INTO termbase_entries (id, client_id, source, target, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id, source) DO UPDATE SET
			target = EXCLUDED.target,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.ClientID,
		entry.Source,
		entry.Target,
		entry.Note,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert term: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (s *TermbaseStore) Get(ctx context.Context, id string) (*domain.StoredTermbaseEntry, error) {
	e, err := scanTerm(s.db.QueryRowContext(ctx,
		`SELECT `+termColumns+` FROM termbase_entries WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get term: %w", err)
	}
	return e, nil
}

// List retrieves entries newest first
func (s *TermbaseStore) List(ctx context.Context, clientID string) ([]*domain.StoredTermbaseEntry, error) {
	query := `SELECT ` + termColumns + ` FROM termbase_entries`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var entries []*domain.StoredTermbaseEntry
	for rows.Next() {
		e, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete deletes an entry by ID
func (s *TermbaseStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM termbase_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	return expectOne(result, domain.ErrNotFound)
}

// CountByClient returns how many entries belong to a client
func (s *TermbaseStore) CountByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM termbase_entries WHERE client_id = $1`, clientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count terms: %w", err)
	}
	return count, nil
}
