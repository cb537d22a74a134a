package http

import (
	"net/http"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driving"
)

// AddTermRequest upserts a termbase entry
type AddTermRequest struct {
	ClientID string `json:"client_id,omitempty"`
	domain.TermbaseEntry
}

// Termbase endpoints

// handleListTerms godoc
// @Summary      List termbase entries
// @Tags         Termbase
// @Produce      json
// @Param        client_id  query     string  false  "Client scope"
// @Success      200        {array}   domain.StoredTermbaseEntry
// @Router       /termbase [get]
func (s *Server) handleListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := s.termbaseService.List(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if terms == nil {
		terms = []*domain.StoredTermbaseEntry{}
	}
	writeJSON(w, http.StatusOK, terms)
}

// handleAddTerm godoc
// @Summary      Add or replace a termbase entry
// @Description  Upserts by (client, source)
// @Tags         Termbase
// @Accept       json
// @Produce      json
// @Param        request  body      AddTermRequest  true  "Term"
// @Success      200      {object}  domain.StoredTermbaseEntry
// @Router       /termbase [post]
func (s *Server) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	var req AddTermRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	term, err := s.termbaseService.Add(r.Context(), req.ClientID, req.TermbaseEntry)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, term)
}

// handleDeleteTerm godoc
// @Summary      Delete a termbase entry
// @Tags         Termbase
// @Param        id   path  string  true  "Term ID"
// @Success      204
// @Router       /termbase/{id} [delete]
func (s *Server) handleDeleteTerm(w http.ResponseWriter, r *http.Request) {
	if err := s.termbaseService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Client endpoints

// handleListClients godoc
// @Summary      List clients
// @Tags         Clients
// @Produce      json
// @Success      200  {array}  domain.Client
// @Router       /clients [get]
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clientService.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if clients == nil {
		clients = []*domain.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// handleCreateClient godoc
// @Summary      Create a client
// @Tags         Clients
// @Accept       json
// @Produce      json
// @Param        request  body      driving.CreateClientRequest  true  "Client details"
// @Success      201      {object}  domain.Client
// @Router       /clients [post]
func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := s.clientService.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// handleGetClient godoc
// @Summary      Get a client
// @Tags         Clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  domain.Client
// @Router       /clients/{id} [get]
func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.clientService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// handleUpdateClient godoc
// @Summary      Update a client
// @Tags         Clients
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Client ID"
// @Param        request  body      driving.UpdateClientRequest  true  "Fields to change"
// @Success      200      {object}  domain.Client
// @Router       /clients/{id} [put]
func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := s.clientService.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// handleDeleteClient godoc
// @Summary      Delete a client
// @Description  Client TMs become unassigned and client terms move to the global scope
// @Tags         Clients
// @Param        id   path  string  true  "Client ID"
// @Success      204
// @Router       /clients/{id} [delete]
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.clientService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClientUsage godoc
// @Summary      Client usage
// @Tags         Clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  domain.ClientUsage
// @Router       /clients/{id}/usage [get]
func (s *Server) handleClientUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.clientService.Usage(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
