package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ClientStore = (*ClientStore)(nil)

// ClientStore implements driven.ClientStore using PostgreSQL
type ClientStore struct {
	db *DB
}

// NewClientStore creates a new ClientStore
func NewClientStore(db *DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, name, source_lang, target_lang, description, created_at, updated_at`

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.SourceLang, &c.TargetLang, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Save creates or updates a client
func (s *ClientStore) Save(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, name, source_lang, target_lang, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_lang = EXCLUDED.source_lang,
			target_lang = EXCLUDED.target_lang,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.SourceLang,
		client.TargetLang,
		client.Description,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

// Get retrieves a client by ID
func (s *ClientStore) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// List retrieves all clients, newest first
func (s *ClientStore) List(ctx context.Context) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Delete removes a client. TMs fall back to the global scope through the
// foreign key; termbase entries are moved unless the global scope already
// holds the same source, in which case the client entry is dropped.
func (s *ClientStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE termbase_entries SET client_id = ''
			WHERE client_id = $1
			  AND source NOT IN (SELECT source FROM termbase_entries WHERE client_id = '')
		`, id); err != nil {
			return fmt.Errorf("release termbase: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM termbase_entries WHERE client_id = $1`, id); err != nil {
			return fmt.Errorf("drop shadowed terms: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return expectOne(result, domain.ErrNotFound)
	})
}
