package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/matching"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/ports/driving"
	"github.com/catforge/cat-core/internal/runtime"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// sessionHandle pairs an editor with the lock serialising access to it
type sessionHandle struct {
	mu     sync.Mutex
	editor *EditorSession
	// closed is set under mu by Delete; a closed handle is never persisted
	closed bool

	name       string
	clientID   string
	tmIDs      []string
	sourceLang string
	createdAt  time.Time
}

// sessionService keeps resident editor sessions and their snapshots
type sessionService struct {
	mu       sync.Mutex
	sessions map[string]*sessionHandle

	tmStore       driven.TMStore
	termbaseStore driven.TermbaseStore
	snapshots     driven.SessionSnapshotStore
	segmenter     driven.Segmenter
	sink          driven.IntentSink
	matcher       *matching.Matcher
	defaults      domain.EditorSettings
	runtime       *runtime.Services
	logger        *slog.Logger
}

// SessionServiceConfig holds the collaborators of the session service
type SessionServiceConfig struct {
	TMStore       driven.TMStore
	TermbaseStore driven.TermbaseStore
	Snapshots     driven.SessionSnapshotStore
	Segmenter     driven.Segmenter
	Sink          driven.IntentSink
	Matcher       *matching.Matcher
	Defaults      *domain.EditorSettings
	// Runtime, when set, supplies the live editor profile and takes
	// precedence over Defaults
	Runtime *runtime.Services
	Logger  *slog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(cfg SessionServiceConfig) driving.SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = matching.NewMatcher(nil)
	}
	defaults := domain.DefaultEditorSettings()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}

	return &sessionService{
		sessions:      make(map[string]*sessionHandle),
		tmStore:       cfg.TMStore,
		termbaseStore: cfg.TermbaseStore,
		snapshots:     cfg.Snapshots,
		segmenter:     cfg.Segmenter,
		sink:          cfg.Sink,
		matcher:       matcher,
		defaults:      defaults,
		runtime:       cfg.Runtime,
		logger:        logger,
	}
}

// Create opens a new session and scores its segments
func (s *sessionService) Create(ctx context.Context, req driving.CreateSessionRequest) (*domain.SessionInfo, error) {
	sources, err := s.documentSources(req)
	if err != nil {
		return nil, err
	}

	entries, termbase, err := s.loadWorkingSet(ctx, req.TMIDs, req.ClientID)
	if err != nil {
		return nil, err
	}

	settings := s.defaults
	if s.runtime != nil {
		settings = s.runtime.EditorDefaults()
	}
	if req.Settings != nil {
		settings = *req.Settings
	}

	h := &sessionHandle{
		name:       req.Name,
		clientID:   req.ClientID,
		tmIDs:      req.TMIDs,
		sourceLang: req.SourceLang,
		createdAt:  time.Now(),
	}
	h.editor = NewEditorSession(EditorSessionConfig{
		TMID:       primaryTM(req.TMIDs),
		TargetLang: req.TargetLang,
		Matcher:    s.matcher,
		Entries:    entries,
		Termbase:   termbase,
		Settings:   &settings,
		Sink:       s.sink,
		Logger:     s.logger,
	})

	if req.Segments != nil {
		h.editor.LoadSegments(req.Segments)
	} else {
		h.editor.LoadSources(sources)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s.mu.Lock()
	s.sessions[h.editor.ID()] = h
	s.mu.Unlock()

	s.persist(ctx, h)
	return h.info(), nil
}

// loadWorkingSet reads the TM entries and termbase a session matches against
func (s *sessionService) loadWorkingSet(ctx context.Context, tmIDs []string, clientID string) ([]domain.TMEntry, []domain.TermbaseEntry, error) {
	var entries []domain.TMEntry
	if len(tmIDs) > 0 && s.tmStore != nil {
		loaded, err := s.tmStore.LoadEntries(ctx, tmIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load tm entries: %w", err)
		}
		entries = loaded
	}

	var termbase []domain.TermbaseEntry
	if s.termbaseStore != nil {
		stored, err := s.termbaseStore.List(ctx, clientID)
		if err != nil {
			return nil, nil, fmt.Errorf("load termbase: %w", err)
		}
		termbase = plainTerms(stored)
	}
	return entries, termbase, nil
}

func (s *sessionService) documentSources(req driving.CreateSessionRequest) ([]string, error) {
	switch {
	case req.Segments != nil:
		return nil, nil
	case req.Sources != nil:
		return req.Sources, nil
	case req.Text != "":
		if s.segmenter == nil {
			return nil, fmt.Errorf("%w: raw text requires a segmenter", domain.ErrInvalidInput)
		}
		delimiter := req.Delimiter
		if delimiter == "" {
			delimiter = domain.DelimiterSentence
		}
		if !delimiter.Valid() {
			return nil, fmt.Errorf("%w: unknown delimiter %q", domain.ErrInvalidInput, delimiter)
		}
		return s.segmenter.Segment(req.Text, delimiter), nil
	}
	return nil, domain.ErrNoDocument
}

// Get summarises a session
func (s *sessionService) Get(ctx context.Context, id string) (*domain.SessionInfo, error) {
	var info *domain.SessionInfo
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		info = h.info()
		return nil
	})
	return info, err
}

// Delete closes a session and drops its snapshot. It waits for a running
// edit of the session, and edits queued behind it fail with ErrNotFound.
func (s *sessionService) Delete(ctx context.Context, id string) error {
	h, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return domain.ErrNotFound
	}
	h.closed = true

	s.mu.Lock()
	if s.sessions[id] == h {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Segments lists segments, optionally filtered by status
func (s *sessionService) Segments(ctx context.Context, id string, status domain.SegmentStatus) ([]domain.Segment, error) {
	var segments []domain.Segment
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		segments = h.editor.Filter(status)
		return nil
	})
	return segments, err
}

// UpdateTarget edits the target of a segment
func (s *sessionService) UpdateTarget(ctx context.Context, id string, segmentID int, target string) (*domain.Segment, error) {
	var seg domain.Segment
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		if err := h.editor.UpdateTarget(segmentID, target); err != nil {
			return err
		}
		seg, _ = h.editor.Segment(segmentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// ApplyTMMatch copies a TM entry target into a segment
func (s *sessionService) ApplyTMMatch(ctx context.Context, id string, segmentID int, entry domain.TMEntry) (*domain.Segment, error) {
	var seg domain.Segment
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		if err := h.editor.ApplyTMMatch(segmentID, entry); err != nil {
			return err
		}
		seg, _ = h.editor.Segment(segmentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// Confirm confirms a segment
func (s *sessionService) Confirm(ctx context.Context, id string, segmentID int) (*domain.ConfirmResult, error) {
	var result *domain.ConfirmResult
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		var err error
		result, err = h.editor.Confirm(segmentID)
		return err
	})
	return result, err
}

// ApplyAllExactMatches fills new segments that have exact matches
func (s *sessionService) ApplyAllExactMatches(ctx context.Context, id string) (int, error) {
	var applied int
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		applied = h.editor.ApplyAll100PlusMatches()
		return nil
	})
	return applied, err
}

// Navigate moves the active-segment cursor
func (s *sessionService) Navigate(ctx context.Context, id string, dir domain.NavigateDirection) (int, error) {
	if dir != domain.NavigatePrev && dir != domain.NavigateNext {
		return 0, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, dir)
	}
	var active int
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		active = h.editor.Navigate(dir)
		return nil
	})
	return active, err
}

// SetActive sets the active-segment cursor
func (s *sessionService) SetActive(ctx context.Context, id string, index int) error {
	return s.withSession(ctx, id, true, func(h *sessionHandle) error {
		return h.editor.SetActive(index)
	})
}

// Analysis prices the document
func (s *sessionService) Analysis(ctx context.Context, id string, wordRate float64) (*domain.AnalysisData, error) {
	var analysis *domain.AnalysisData
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		analysis = h.editor.Analysis(wordRate)
		if analysis == nil {
			return domain.ErrNoDocument
		}
		return nil
	})
	return analysis, err
}

// TMMatches returns ranked fuzzy matches for a segment
func (s *sessionService) TMMatches(ctx context.Context, id string, segmentID int) ([]domain.TMMatch, error) {
	var matches []domain.TMMatch
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		var err error
		matches, err = h.editor.TMMatches(segmentID)
		return err
	})
	return matches, err
}

// TermMatches returns termbase entries occurring in a segment
func (s *sessionService) TermMatches(ctx context.Context, id string, segmentID int) ([]domain.TermbaseEntry, error) {
	var terms []domain.TermbaseEntry
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		var err error
		terms, err = h.editor.TermMatches(segmentID)
		return err
	})
	return terms, err
}

// RunQA runs every enabled check over the document
func (s *sessionService) RunQA(ctx context.Context, id string) ([]domain.QAIssue, error) {
	var issues []domain.QAIssue
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		issues = h.editor.RunQA()
		return nil
	})
	return issues, err
}

// Issues returns the current QA issues
func (s *sessionService) Issues(ctx context.Context, id string) ([]domain.QAIssue, error) {
	var issues []domain.QAIssue
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		issues = h.editor.Issues()
		return nil
	})
	return issues, err
}

// SetIssueIgnored flags an issue by its position in the issue list
func (s *sessionService) SetIssueIgnored(ctx context.Context, id string, index int, ignored bool) error {
	return s.withSession(ctx, id, true, func(h *sessionHandle) error {
		return h.editor.SetIssueIgnored(index, ignored)
	})
}

// ImportTMEntries adds entries to the working set and queues their
// persistence to the primary TM
func (s *sessionService) ImportTMEntries(ctx context.Context, id string, entries []domain.TMEntry) (int, error) {
	err := s.withSession(ctx, id, true, func(h *sessionHandle) error {
		h.editor.AddTMEntries(entries)
		tmID := primaryTM(h.tmIDs)
		if s.sink == nil || tmID == "" || len(entries) == 0 {
			return nil
		}
		task := domain.NewEntriesImportedTask(tmID, h.editor.targetLang, entries)
		if err := s.sink.Emit(task); err != nil {
			s.logger.Warn("import intent dropped", "session_id", id, "task_id", task.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Snapshot returns the full restorable state of a session
func (s *sessionService) Snapshot(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	var snapshot *domain.SessionSnapshot
	err := s.withSession(ctx, id, false, func(h *sessionHandle) error {
		snapshot = h.snapshot()
		return nil
	})
	return snapshot, err
}

// withSession runs fn with the session locked. When mutate is set the
// session snapshot is written afterwards.
func (s *sessionService) withSession(ctx context.Context, id string, mutate bool, fn func(h *sessionHandle) error) error {
	h, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	return s.run(ctx, h, mutate, fn)
}

// run applies fn to a handle obtained from lookup. The handle may have been
// deleted while the caller waited for its lock.
func (s *sessionService) run(ctx context.Context, h *sessionHandle, mutate bool, fn func(h *sessionHandle) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return domain.ErrNotFound
	}

	if err := fn(h); err != nil {
		return err
	}
	if mutate {
		s.persist(ctx, h)
	}
	return nil
}

// lookup returns a resident session, restoring it from its snapshot if needed
func (s *sessionService) lookup(ctx context.Context, id string) (*sessionHandle, error) {
	s.mu.Lock()
	h, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return h, nil
	}

	if s.snapshots == nil {
		return nil, domain.ErrNotFound
	}
	snapshot, err := s.snapshots.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	restored, err := s.restore(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have restored it first
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = restored
	s.logger.Info("session restored", "session_id", id, "segments", len(snapshot.Segments))
	return restored, nil
}

// restore rebuilds a session from its snapshot. TM entries and termbase are
// reloaded; entries added in the session are appended unless the worker has
// already persisted them.
func (s *sessionService) restore(ctx context.Context, snapshot *domain.SessionSnapshot) (*sessionHandle, error) {
	entries, termbase, err := s.loadWorkingSet(ctx, snapshot.TMIDs, snapshot.ClientID)
	if err != nil {
		return nil, err
	}

	settings := snapshot.Settings
	h := &sessionHandle{
		name:       snapshot.Name,
		clientID:   snapshot.ClientID,
		tmIDs:      snapshot.TMIDs,
		sourceLang: snapshot.SourceLang,
		createdAt:  snapshot.CreatedAt,
	}
	h.editor = NewEditorSession(EditorSessionConfig{
		ID:         snapshot.ID,
		TMID:       snapshot.PrimaryTMID(),
		TargetLang: snapshot.TargetLang,
		Matcher:    s.matcher,
		Entries:    entries,
		Added:      unpersisted(entries, snapshot.AddedEntries),
		Termbase:   termbase,
		Settings:   &settings,
		Sink:       s.sink,
		Logger:     s.logger,
	})
	h.editor.restore(snapshot.Segments, snapshot.ActiveIndex, snapshot.Issues)
	return h, nil
}

// persist writes the session snapshot. Callers hold h.mu. Failures are
// logged; the resident session stays authoritative.
func (s *sessionService) persist(ctx context.Context, h *sessionHandle) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, h.snapshot()); err != nil {
		s.logger.Warn("failed to save session snapshot", "session_id", h.editor.ID(), "error", err)
	}
}

func (h *sessionHandle) snapshot() *domain.SessionSnapshot {
	snapshot := h.editor.Snapshot()
	snapshot.Name = h.name
	snapshot.ClientID = h.clientID
	snapshot.TMIDs = h.tmIDs
	snapshot.SourceLang = h.sourceLang
	snapshot.CreatedAt = h.createdAt
	snapshot.UpdatedAt = time.Now()
	return snapshot
}

func (h *sessionHandle) info() *domain.SessionInfo {
	return &domain.SessionInfo{
		ID:          h.editor.ID(),
		Name:        h.name,
		ClientID:    h.clientID,
		TMIDs:       h.tmIDs,
		SourceLang:  h.sourceLang,
		TargetLang:  h.editor.targetLang,
		ActiveIndex: h.editor.Active(),
		Stats:       h.editor.Stats(),
		TotalWords:  h.editor.TotalWords(),
		TMEntries:   h.editor.Memory().Len(),
		IssueCount:  len(h.editor.issues),
	}
}

func primaryTM(tmIDs []string) string {
	if len(tmIDs) == 0 {
		return ""
	}
	return tmIDs[0]
}

// unpersisted drops added entries whose source/target pair is already in
// the loaded entries
func unpersisted(loaded, added []domain.TMEntry) []domain.TMEntry {
	if len(added) == 0 {
		return nil
	}
	type pair struct{ source, target string }
	seen := make(map[pair]bool, len(loaded))
	for _, e := range loaded {
		seen[pair{e.Source, e.Target}] = true
	}
	out := make([]domain.TMEntry, 0, len(added))
	for _, e := range added {
		if !seen[pair{e.Source, e.Target}] {
			out = append(out, e)
		}
	}
	return out
}

func plainTerms(stored []*domain.StoredTermbaseEntry) []domain.TermbaseEntry {
	terms := make([]domain.TermbaseEntry, 0, len(stored))
	for _, e := range stored {
		terms = append(terms, e.TermbaseEntry)
	}
	return terms
}
