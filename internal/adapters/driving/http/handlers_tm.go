package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/catforge/cat-core/internal/adapters/driven/exchange"
	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driving"
)

// AddEntryRequest upserts one TM entry
type AddEntryRequest struct {
	TargetLang string `json:"target_lang"`
	domain.TMEntry
}

// handleListTMs godoc
// @Summary      List translation memories
// @Tags         TMs
// @Produce      json
// @Param        client_id  query     string  false  "Only TMs of this client"
// @Success      200        {array}   domain.TranslationMemory
// @Router       /tms [get]
func (s *Server) handleListTMs(w http.ResponseWriter, r *http.Request) {
	tms, err := s.tmService.List(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if tms == nil {
		tms = []*domain.TranslationMemory{}
	}
	writeJSON(w, http.StatusOK, tms)
}

// handleCreateTM godoc
// @Summary      Create a translation memory
// @Tags         TMs
// @Accept       json
// @Produce      json
// @Param        request  body      driving.CreateTMRequest  true  "TM details"
// @Success      201      {object}  domain.TranslationMemory
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Router       /tms [post]
func (s *Server) handleCreateTM(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateTMRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tm, err := s.tmService.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tm)
}

// handleGetTM godoc
// @Summary      Get a translation memory
// @Tags         TMs
// @Produce      json
// @Param        id   path      string  true  "TM ID"
// @Success      200  {object}  domain.TranslationMemory
// @Failure      404  {object}  ErrorResponse  "TM not found"
// @Router       /tms/{id} [get]
func (s *Server) handleGetTM(w http.ResponseWriter, r *http.Request) {
	tm, err := s.tmService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

// handleUpdateTM godoc
// @Summary      Update a translation memory
// @Tags         TMs
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "TM ID"
// @Param        request  body      domain.TMUpdate  true  "Fields to change"
// @Success      200      {object}  domain.TranslationMemory
// @Router       /tms/{id} [put]
func (s *Server) handleUpdateTM(w http.ResponseWriter, r *http.Request) {
	var update domain.TMUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	tm, err := s.tmService.Update(r.Context(), r.PathValue("id"), update)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

// handleDeleteTM godoc
// @Summary      Delete a translation memory and its entries
// @Tags         TMs
// @Param        id   path  string  true  "TM ID"
// @Success      204
// @Router       /tms/{id} [delete]
func (s *Server) handleDeleteTM(w http.ResponseWriter, r *http.Request) {
	if err := s.tmService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListEntries godoc
// @Summary      List TM entries
// @Tags         TMs
// @Produce      json
// @Param        id   path      string  true  "TM ID"
// @Success      200  {array}   domain.StoredTMEntry
// @Router       /tms/{id}/entries [get]
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tmService.ListEntries(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.StoredTMEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAddEntry godoc
// @Summary      Add or replace a TM entry
// @Description  Upserts by (TM, source, target language)
// @Tags         TMs
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "TM ID"
// @Param        request  body      AddEntryRequest  true  "Entry"
// @Success      200      {object}  domain.StoredTMEntry
// @Router       /tms/{id}/entries [post]
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.tmService.AddEntry(r.Context(), r.PathValue("id"), req.TargetLang, req.TMEntry)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteEntry godoc
// @Summary      Delete a TM entry
// @Tags         TMs
// @Param        id     path  string  true  "TM ID"
// @Param        entry  path  string  true  "Entry ID"
// @Success      202
// @Router       /tms/{id}/entries/{entry} [delete]
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.tmService.DeleteEntry(r.Context(), r.PathValue("id"), r.PathValue("entry")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	// the delete may still be queued
	w.WriteHeader(http.StatusAccepted)
}

// handleImportEntries godoc
// @Summary      Import TM entries
// @Tags         TMs
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "TM ID"
// @Param        request  body      ImportEntriesRequest  true  "Entries"
// @Success      200      {object}  CountResponse
// @Router       /tms/{id}/import [post]
func (s *Server) handleImportEntries(w http.ResponseWriter, r *http.Request) {
	var req ImportEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := s.tmService.ImportEntries(r.Context(), r.PathValue("id"), req.TargetLang, req.Entries)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// handleImportTMX godoc
// @Summary      Import a TMX document
// @Description  Appends the units of a TMX document. target_lang defaults to the language of the document's target variants.
// @Tags         Exchange
// @Accept       xml
// @Produce      json
// @Param        id           path      string  true   "TM ID"
// @Param        target_lang  query     string  false  "Target language"
// @Success      200          {object}  CountResponse
// @Failure      400          {object}  ErrorResponse  "Invalid TMX"
// @Router       /tms/{id}/import/tmx [post]
func (s *Server) handleImportTMX(w http.ResponseWriter, r *http.Request) {
	doc, err := exchange.DecodeTMX(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	targetLang := firstNonEmpty(r.URL.Query().Get("target_lang"), doc.TargetLang)
	n, err := s.tmService.ImportEntries(r.Context(), r.PathValue("id"), targetLang, doc.Entries)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// handleExportTMX godoc
// @Summary      Export a TMX document
// @Description  Exports the entries of one target language, by default the TM's first one
// @Tags         Exchange
// @Produce      xml
// @Param        id           path      string  true   "TM ID"
// @Param        target_lang  query     string  false  "Target language"
// @Success      200          {string}  string  "TMX 1.4 document"
// @Router       /tms/{id}/export/tmx [get]
func (s *Server) handleExportTMX(w http.ResponseWriter, r *http.Request) {
	tmID := r.PathValue("id")
	tm, err := s.tmService.Get(r.Context(), tmID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	stored, err := s.tmService.ListEntries(r.Context(), tmID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	targetLang := r.URL.Query().Get("target_lang")
	if targetLang == "" && len(tm.TargetLangs) > 0 {
		targetLang = tm.TargetLangs[0]
	}
	entries := make([]domain.TMEntry, 0, len(stored))
	for _, e := range stored {
		if targetLang != "" && e.TargetLang != "" && !strings.EqualFold(e.TargetLang, targetLang) {
			continue
		}
		entries = append(entries, e.TMEntry)
	}

	var buf bytes.Buffer
	if err := exchange.EncodeTMX(&buf, entries, tm.SourceLang, targetLang); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tm.Name+".tmx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
