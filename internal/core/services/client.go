package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/ports/driving"
)

// Ensure clientService implements ClientService
var _ driving.ClientService = (*clientService)(nil)

// clientService implements the ClientService interface
type clientService struct {
	clients   driven.ClientStore
	tms       driven.TMStore
	termbases driven.TermbaseStore
}

// NewClientService creates a new ClientService
func NewClientService(
	clients driven.ClientStore,
	tms driven.TMStore,
	termbases driven.TermbaseStore,
) driving.ClientService {
	return &clientService{
		clients:   clients,
		tms:       tms,
		termbases: termbases,
	}
}

// Create creates a new client
func (s *clientService) Create(ctx context.Context, req driving.CreateClientRequest) (*domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	client := &domain.Client{
		ID:          domain.GenerateID(),
		Name:        name,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if client.SourceLang == "" {
		client.SourceLang = domain.DefaultClientSourceLang
	}
	if client.TargetLang == "" {
		client.TargetLang = domain.DefaultClientTargetLang
	}

	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Get retrieves a client by ID
func (s *clientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	return s.clients.Get(ctx, id)
}

// List retrieves all clients
func (s *clientService) List(ctx context.Context) ([]*domain.Client, error) {
	return s.clients.List(ctx)
}

// Update updates a client
func (s *clientService) Update(ctx context.Context, id string, req driving.UpdateClientRequest) (*domain.Client, error) {
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		client.Name = name
	}
	if req.SourceLang != nil {
		client.SourceLang = *req.SourceLang
	}
	if req.TargetLang != nil {
		client.TargetLang = *req.TargetLang
	}
	if req.Description != nil {
		client.Description = *req.Description
	}
	client.UpdatedAt = time.Now()

	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete deletes a client
func (s *clientService) Delete(ctx context.Context, id string) error {
	return s.clients.Delete(ctx, id)
}

// Usage counts the TMs and termbase entries of a client
func (s *clientService) Usage(ctx context.Context, id string) (*domain.ClientUsage, error) {
	if _, err := s.clients.Get(ctx, id); err != nil {
		return nil, err
	}

	tmCount, err := s.tms.CountByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	termCount, err := s.termbases.CountByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ClientUsage{TMCount: tmCount, TermbaseCount: termCount}, nil
}
