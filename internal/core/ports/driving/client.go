package driving

import (
	"context"

	"github.com/catforge/cat-core/internal/core/domain"
)

// CreateClientRequest represents a request to create a client
type CreateClientRequest struct {
	Name        string `json:"name"`
	SourceLang  string `json:"source_lang,omitempty"`
	TargetLang  string `json:"target_lang,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateClientRequest represents a request to update a client
type UpdateClientRequest struct {
	Name        *string `json:"name,omitempty"`
	SourceLang  *string `json:"source_lang,omitempty"`
	TargetLang  *string `json:"target_lang,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ClientService manages clients
type ClientService interface {
	Create(ctx context.Context, req CreateClientRequest) (*domain.Client, error)
	Get(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, id string, req UpdateClientRequest) (*domain.Client, error)
	Delete(ctx context.Context, id string) error

	// Usage counts the TMs and termbase entries of a client
	Usage(ctx context.Context, id string) (*domain.ClientUsage, error)
}
