package http

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/catforge/cat-core/internal/adapters/driven/exchange"
	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driving"
	"github.com/catforge/cat-core/internal/metrics"
)

// UpdateTargetRequest sets a segment's target text
type UpdateTargetRequest struct {
	Target string `json:"target"`
}

// ApplyMatchRequest copies a TM entry into a segment
type ApplyMatchRequest struct {
	Entry domain.TMEntry `json:"entry"`
}

// NavigateRequest moves the active-segment cursor
type NavigateRequest struct {
	Direction domain.NavigateDirection `json:"direction" example:"next"`
}

// SetActiveRequest positions the active-segment cursor
type SetActiveRequest struct {
	Index int `json:"index"`
}

// IgnoreIssueRequest toggles a QA issue
type IgnoreIssueRequest struct {
	Ignored bool `json:"ignored"`
}

// ImportEntriesRequest carries TM entries
type ImportEntriesRequest struct {
	TargetLang string           `json:"target_lang,omitempty"`
	Entries    []domain.TMEntry `json:"entries"`
}

// CountResponse reports how many items an operation touched
type CountResponse struct {
	Count int `json:"count"`
}

// ActiveResponse reports the active-segment cursor
type ActiveResponse struct {
	Active int `json:"active"`
}

// handleCreateSession godoc
// @Summary      Open a document
// @Description  Creates an editor session from sources, resumed segments or raw text, and scores every segment against the selected TMs
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      driving.CreateSessionRequest  true  "Document and TM selection"
// @Success      201      {object}  domain.SessionInfo
// @Failure      400      {object}  ErrorResponse  "Invalid input or no document"
// @Router       /sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	info, err := s.sessionService.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleGetSession godoc
// @Summary      Get session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.SessionInfo
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Router       /sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDeleteSession godoc
// @Summary      Close session
// @Tags         Sessions
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Router       /sessions/{id} [delete]
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSnapshot godoc
// @Summary      Get session snapshot
// @Description  Returns the full restorable state of a session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.SessionSnapshot
// @Router       /sessions/{id}/snapshot [get]
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessionService.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetStats godoc
// @Summary      Translation progress
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.TranslationStats
// @Router       /sessions/{id}/stats [get]
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info.Stats)
}

// handleGetAnalysis godoc
// @Summary      Match analysis
// @Description  Prices the document by match tier. word_rate overrides the session setting.
// @Tags         Sessions
// @Produce      json
// @Param        id         path      string  true   "Session ID"
// @Param        word_rate  query     number  false  "Price per word"
// @Success      200        {object}  domain.AnalysisData
// @Router       /sessions/{id}/analysis [get]
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	var wordRate float64
	if v := r.URL.Query().Get("word_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 {
			writeError(w, http.StatusBadRequest, "invalid word_rate")
			return
		}
		wordRate = rate
	}

	analysis, err := s.sessionService.Analysis(r.Context(), r.PathValue("id"), wordRate)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handleListSegments godoc
// @Summary      List segments
// @Tags         Segments
// @Produce      json
// @Param        id      path      string  true   "Session ID"
// @Param        status  query     string  false  "new, translated or confirmed"
// @Success      200     {array}   domain.Segment
// @Router       /sessions/{id}/segments [get]
func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	status := domain.SegmentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	segments, err := s.sessionService.Segments(r.Context(), r.PathValue("id"), status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if segments == nil {
		segments = []domain.Segment{}
	}
	writeJSON(w, http.StatusOK, segments)
}

// handleUpdateTarget godoc
// @Summary      Edit a segment
// @Description  Sets the target; status becomes translated, or new when the target is empty
// @Tags         Segments
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Session ID"
// @Param        segment  path      int                  true  "Segment ID"
// @Param        request  body      UpdateTargetRequest  true  "Target text"
// @Success      200      {object}  domain.Segment
// @Failure      404      {object}  ErrorResponse  "Session or segment not found"
// @Router       /sessions/{id}/segments/{segment}/target [put]
func (s *Server) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	segmentID, ok := pathInt(w, r, "segment")
	if !ok {
		return
	}
	var req UpdateTargetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seg, err := s.sessionService.UpdateTarget(r.Context(), r.PathValue("id"), segmentID, req.Target)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

// handleConfirm godoc
// @Summary      Confirm a segment
// @Description  Confirms the segment, records it in the TM, propagates it to identical sources and runs instant QA. A segment without a target is left unchanged.
// @Tags         Segments
// @Produce      json
// @Param        id       path      string  true  "Session ID"
// @Param        segment  path      int     true  "Segment ID"
// @Success      200      {object}  domain.ConfirmResult
// @Router       /sessions/{id}/segments/{segment}/confirm [post]
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	segmentID, ok := pathInt(w, r, "segment")
	if !ok {
		return
	}

	result, err := s.sessionService.Confirm(r.Context(), r.PathValue("id"), segmentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if result.Confirmed {
		metrics.RecordConfirm(len(result.Propagated))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleApplyMatch godoc
// @Summary      Apply a TM match
// @Tags         Segments
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Session ID"
// @Param        segment  path      int                true  "Segment ID"
// @Param        request  body      ApplyMatchRequest  true  "TM entry"
// @Success      200      {object}  domain.Segment
// @Router       /sessions/{id}/segments/{segment}/apply-match [post]
func (s *Server) handleApplyMatch(w http.ResponseWriter, r *http.Request) {
	segmentID, ok := pathInt(w, r, "segment")
	if !ok {
		return
	}
	var req ApplyMatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seg, err := s.sessionService.ApplyTMMatch(r.Context(), r.PathValue("id"), segmentID, req.Entry)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

// handleTMMatches godoc
// @Summary      Fuzzy matches for a segment
// @Tags         Segments
// @Produce      json
// @Param        id       path      string  true  "Session ID"
// @Param        segment  path      int     true  "Segment ID"
// @Success      200      {array}   domain.TMMatch
// @Router       /sessions/{id}/segments/{segment}/tm-matches [get]
func (s *Server) handleTMMatches(w http.ResponseWriter, r *http.Request) {
	segmentID, ok := pathInt(w, r, "segment")
	if !ok {
		return
	}

	matches, err := s.sessionService.TMMatches(r.Context(), r.PathValue("id"), segmentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if matches == nil {
		matches = []domain.TMMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleTermMatches godoc
// @Summary      Termbase hits for a segment
// @Tags         Segments
// @Produce      json
// @Param        id       path      string  true  "Session ID"
// @Param        segment  path      int     true  "Segment ID"
// @Success      200      {array}   domain.TermbaseEntry
// @Router       /sessions/{id}/segments/{segment}/term-matches [get]
func (s *Server) handleTermMatches(w http.ResponseWriter, r *http.Request) {
	segmentID, ok := pathInt(w, r, "segment")
	if !ok {
		return
	}

	terms, err := s.sessionService.TermMatches(r.Context(), r.PathValue("id"), segmentID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if terms == nil {
		terms = []domain.TermbaseEntry{}
	}
	writeJSON(w, http.StatusOK, terms)
}

// handleApplyExactMatches godoc
// @Summary      Apply all exact matches
// @Description  Fills every new segment scored 100 or above that has an exact TM match
// @Tags         Segments
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  CountResponse
// @Router       /sessions/{id}/apply-exact-matches [post]
func (s *Server) handleApplyExactMatches(w http.ResponseWriter, r *http.Request) {
	n, err := s.sessionService.ApplyAllExactMatches(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// handleNavigate godoc
// @Summary      Move the cursor
// @Tags         Segments
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Session ID"
// @Param        request  body      NavigateRequest  true  "prev or next"
// @Success      200      {object}  ActiveResponse
// @Router       /sessions/{id}/navigate [post]
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active, err := s.sessionService.Navigate(r.Context(), r.PathValue("id"), req.Direction)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActiveResponse{Active: active})
}

// handleSetActive godoc
// @Summary      Set the cursor
// @Tags         Segments
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Session ID"
// @Param        request  body      SetActiveRequest  true  "Segment index"
// @Success      200      {object}  ActiveResponse
// @Router       /sessions/{id}/active [put]
func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.sessionService.SetActive(r.Context(), r.PathValue("id"), req.Index); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActiveResponse{Active: req.Index})
}

// handleImportSessionEntries godoc
// @Summary      Add entries to the session TM
// @Description  Adds entries to the working set and persists them to the session's primary TM
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Session ID"
// @Param        request  body      ImportEntriesRequest  true  "Entries"
// @Success      200      {object}  CountResponse
// @Router       /sessions/{id}/tm-entries [post]
func (s *Server) handleImportSessionEntries(w http.ResponseWriter, r *http.Request) {
	var req ImportEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := s.sessionService.ImportTMEntries(r.Context(), r.PathValue("id"), req.Entries)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// QA endpoints

// handleRunQA godoc
// @Summary      Run QA
// @Description  Runs every enabled check over the document and replaces the issue list
// @Tags         QA
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {array}   domain.QAIssue
// @Router       /sessions/{id}/qa [post]
func (s *Server) handleRunQA(w http.ResponseWriter, r *http.Request) {
	issues, err := s.sessionService.RunQA(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	for _, issue := range issues {
		metrics.RecordQAIssue(string(issue.Type), string(issue.Severity))
	}
	if issues == nil {
		issues = []domain.QAIssue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleListIssues godoc
// @Summary      List QA issues
// @Tags         QA
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {array}   domain.QAIssue
// @Router       /sessions/{id}/qa/issues [get]
func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.sessionService.Issues(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if issues == nil {
		issues = []domain.QAIssue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleSetIssueIgnored godoc
// @Summary      Ignore or restore a QA issue
// @Tags         QA
// @Accept       json
// @Param        id       path  string              true  "Session ID"
// @Param        index    path  int                 true  "Position in the issue list"
// @Param        request  body  IgnoreIssueRequest  true  "Ignored flag"
// @Success      204
// @Router       /sessions/{id}/qa/issues/{index} [put]
func (s *Server) handleSetIssueIgnored(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	var req IgnoreIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.sessionService.SetIssueIgnored(r.Context(), r.PathValue("id"), index, req.Ignored); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// XLIFF exchange

// handleExportXLIFF godoc
// @Summary      Export XLIFF
// @Tags         Exchange
// @Produce      xml
// @Param        id   path  string  true  "Session ID"
// @Success      200  {string}  string  "XLIFF 1.2 document"
// @Router       /sessions/{id}/export/xliff [get]
func (s *Server) handleExportXLIFF(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessionService.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := exchange.EncodeXLIFF(&buf, snap.Segments, snap.SourceLang, snap.TargetLang, snap.Name); err != nil {
		s.writeServiceError(w, err)
		return
	}

	name := strings.TrimSuffix(snap.Name, path.Ext(snap.Name))
	if name == "" {
		name = snap.ID
	}
	w.Header().Set("Content-Type", "application/xliff+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xliff"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImportXLIFF godoc
// @Summary      Resume a project from XLIFF
// @Description  Opens a session from an XLIFF document, keeping targets and statuses. Languages default to those of the document.
// @Tags         Exchange
// @Accept       xml
// @Produce      json
// @Param        name         query     string  false  "Document name"
// @Param        client_id    query     string  false  "Client scope for the termbase"
// @Param        tm_ids       query     string  false  "Comma-separated TM IDs"
// @Param        source_lang  query     string  false  "Source language"
// @Param        target_lang  query     string  false  "Target language"
// @Success      201          {object}  domain.SessionInfo
// @Failure      400          {object}  ErrorResponse  "Invalid XLIFF or no units"
// @Router       /sessions/import/xliff [post]
func (s *Server) handleImportXLIFF(w http.ResponseWriter, r *http.Request) {
	doc, err := exchange.DecodeXLIFF(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if len(doc.Segments) == 0 {
		s.writeServiceError(w, domain.ErrNoDocument)
		return
	}

	q := r.URL.Query()
	req := driving.CreateSessionRequest{
		Name:       firstNonEmpty(q.Get("name"), doc.Original),
		ClientID:   q.Get("client_id"),
		TMIDs:      splitList(q.Get("tm_ids")),
		SourceLang: firstNonEmpty(q.Get("source_lang"), doc.SourceLang),
		TargetLang: firstNonEmpty(q.Get("target_lang"), doc.TargetLang),
		Segments:   doc.Segments,
	}

	info, err := s.sessionService.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
