package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/matching"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/qa"
	"github.com/catforge/cat-core/internal/core/tm"
)

// EditorSession owns the state of one open document: its segments, the TM
// working set, the termbase, QA results and the active-segment cursor.
//
// An EditorSession is not safe for concurrent use. SessionService serialises
// access per session.
type EditorSession struct {
	id         string
	tmID       string
	targetLang string

	segments []domain.Segment
	memory   *tm.Memory
	matcher  *matching.Matcher
	termbase []domain.TermbaseEntry
	settings domain.EditorSettings
	active   int
	issues   []domain.QAIssue

	// added holds working-set entries that did not come from cfg.Entries
	added []domain.TMEntry

	sink   driven.IntentSink
	logger *slog.Logger
}

// EditorSessionConfig holds the collaborators of an EditorSession.
type EditorSessionConfig struct {
	ID string

	// TMID and TargetLang route entry_added intents. Without a TMID no
	// intent is emitted.
	TMID       string
	TargetLang string

	Matcher *matching.Matcher
	Entries []domain.TMEntry
	// Added entries follow Entries in the working set and are carried by
	// snapshots
	Added    []domain.TMEntry
	Termbase []domain.TermbaseEntry
	Settings *domain.EditorSettings
	Sink     driven.IntentSink
	Logger   *slog.Logger
}

// NewEditorSession creates an empty session.
func NewEditorSession(cfg EditorSessionConfig) *EditorSession {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	matcher := cfg.Matcher
	if matcher == nil {
		matcher = matching.NewMatcher(nil)
	}

	settings := domain.DefaultEditorSettings()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}

	id := cfg.ID
	if id == "" {
		id = domain.GenerateID()
	}

	memory := tm.New(matcher.Scorer(), cfg.Entries...)
	memory.AppendAll(cfg.Added)

	return &EditorSession{
		id:         id,
		tmID:       cfg.TMID,
		targetLang: cfg.TargetLang,
		memory:     memory,
		added:      append([]domain.TMEntry(nil), cfg.Added...),
		matcher:    matcher,
		termbase:   append([]domain.TermbaseEntry(nil), cfg.Termbase...),
		settings:   settings,
		sink:       cfg.Sink,
		logger:     logger.With("session_id", id),
	}
}

// ID returns the session identifier.
func (s *EditorSession) ID() string {
	return s.id
}

// Settings returns the editing preferences of the session.
func (s *EditorSession) Settings() domain.EditorSettings {
	return s.settings
}

// SetSettings replaces the editing preferences.
func (s *EditorSession) SetSettings(settings domain.EditorSettings) {
	s.settings = settings
}

// Memory returns the TM working set.
func (s *EditorSession) Memory() *tm.Memory {
	return s.memory
}

// Termbase returns a copy of the session termbase.
func (s *EditorSession) Termbase() []domain.TermbaseEntry {
	return append([]domain.TermbaseEntry(nil), s.termbase...)
}

// SetTermbase replaces the session termbase.
func (s *EditorSession) SetTermbase(entries []domain.TermbaseEntry) {
	s.termbase = append([]domain.TermbaseEntry(nil), entries...)
}

// LoadSources replaces the document with fresh segments built from sources,
// scoring each against the current TM.
func (s *EditorSession) LoadSources(sources []string) []domain.Segment {
	rates := s.matcher.MatchRates(sources, s.memory.Entries())

	s.segments = make([]domain.Segment, len(sources))
	for i, source := range sources {
		s.segments[i] = domain.Segment{
			ID:        i,
			Source:    source,
			Status:    domain.SegmentStatusNew,
			MatchRate: rates[i],
		}
	}
	s.active = 0
	s.issues = nil

	s.logger.Info("document loaded", "segments", len(s.segments), "tm_entries", s.memory.Len())
	return s.Segments()
}

// LoadSegments resumes a document. Targets and statuses are kept, ids are
// renumbered in order and match rates are recomputed against the current TM.
func (s *EditorSession) LoadSegments(segments []domain.Segment) []domain.Segment {
	sources := make([]string, len(segments))
	for i, seg := range segments {
		sources[i] = seg.Source
	}
	rates := s.matcher.MatchRates(sources, s.memory.Entries())

	s.segments = make([]domain.Segment, len(segments))
	for i, seg := range segments {
		status := seg.Status
		if seg.Target == "" {
			status = domain.SegmentStatusNew
		} else if status != domain.SegmentStatusConfirmed {
			status = domain.SegmentStatusTranslated
		}
		s.segments[i] = domain.Segment{
			ID:        i,
			Source:    seg.Source,
			Target:    seg.Target,
			Status:    status,
			MatchRate: rates[i],
		}
	}
	s.active = 0
	s.issues = nil

	s.logger.Info("document resumed", "segments", len(s.segments))
	return s.Segments()
}

// restore installs segments verbatim, without rescoring.
func (s *EditorSession) restore(segments []domain.Segment, active int, issues []domain.QAIssue) {
	s.segments = append([]domain.Segment(nil), segments...)
	s.issues = append([]domain.QAIssue(nil), issues...)
	s.active = 0
	if active >= 0 && active < len(s.segments) {
		s.active = active
	}
}

// Segments returns a copy of the segments in document order.
func (s *EditorSession) Segments() []domain.Segment {
	return append([]domain.Segment(nil), s.segments...)
}

// Segment returns the segment with the given id.
func (s *EditorSession) Segment(id int) (domain.Segment, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Segment{}, domain.ErrSegmentNotFound
	}
	return s.segments[idx], nil
}

// UpdateTarget sets the target of a segment; status follows the target.
func (s *EditorSession) UpdateTarget(id int, target string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ErrSegmentNotFound
	}
	s.segments[idx].Target = target
	s.segments[idx].Status = domain.StatusForTarget(target)
	return nil
}

// ApplyTMMatch copies the target of entry into the segment.
func (s *EditorSession) ApplyTMMatch(id int, entry domain.TMEntry) error {
	return s.UpdateTarget(id, entry.Target)
}

// Confirm marks a segment confirmed. With auto-propagation the translation
// is copied to every unconfirmed segment sharing the exact source. A new
// context-aware entry joins the TM when none has this exact source, and the
// cursor moves to the next unconfirmed segment.
//
// Confirming a segment without a target does nothing.
func (s *EditorSession) Confirm(id int) (*domain.ConfirmResult, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrSegmentNotFound
	}

	confirmed := s.segments[idx]
	if confirmed.Target == "" {
		return &domain.ConfirmResult{Active: s.active}, nil
	}

	// context and cursor decisions read the document as it was
	before := s.Segments()

	result := &domain.ConfirmResult{Confirmed: true}
	s.segments[idx].Status = domain.SegmentStatusConfirmed
	if s.settings.AutoPropagation {
		for i := range s.segments {
			if i == idx {
				continue
			}
			seg := &s.segments[i]
			if seg.Source == confirmed.Source && seg.Status != domain.SegmentStatusConfirmed {
				seg.Target = confirmed.Target
				seg.Status = domain.SegmentStatusTranslated
				result.Propagated = append(result.Propagated, seg.ID)
			}
		}
	}

	if s.settings.InstantQA {
		fresh := qa.RunSegmentQA(s.segments[idx], s.segments, s.termbase, qa.EnabledTypes(s.settings.QAChecks))
		s.issues = qa.ReplaceSegmentIssues(s.issues, id, fresh)
		result.Issues = fresh
	}

	if !s.memory.ExistsExact(confirmed.Source) {
		entry := matching.CreateTMEntryWithContext(idx, before)
		s.memory.Append(entry)
		s.added = append(s.added, entry)
		result.EntryAdded = &entry
		s.emitEntryAdded(entry)
	}

	s.active = nextActive(before, idx, s.active)
	result.Active = s.active

	s.logger.Debug("segment confirmed",
		"segment_id", id,
		"propagated", len(result.Propagated),
		"entry_added", result.EntryAdded != nil,
	)
	return result, nil
}

// nextActive returns the first index after current that was not confirmed,
// else current+1, else fallback.
func nextActive(segments []domain.Segment, current, fallback int) int {
	for i := current + 1; i < len(segments); i++ {
		if segments[i].Status != domain.SegmentStatusConfirmed {
			return i
		}
	}
	if current < len(segments)-1 {
		return current + 1
	}
	return fallback
}

func (s *EditorSession) emitEntryAdded(entry domain.TMEntry) {
	if s.sink == nil || s.tmID == "" {
		return
	}
	task := domain.NewEntryAddedTask(s.tmID, s.targetLang, entry)
	if err := s.sink.Emit(task); err != nil {
		s.logger.Warn("entry intent dropped", "task_id", task.ID, "error", err)
	}
}

// ApplyAll100PlusMatches fills every new segment whose load-time rate is at
// least 100 from the first TM entry that currently matches it at exactly 100.
// Returns the number of segments changed.
func (s *EditorSession) ApplyAll100PlusMatches() int {
	applied := 0
	for i := range s.segments {
		seg := &s.segments[i]
		if seg.MatchRate < domain.ExactMatchRate || seg.Status != domain.SegmentStatusNew {
			continue
		}
		entry, ok := s.memory.FirstExactMatch(seg.Source)
		if !ok {
			continue
		}
		seg.Target = entry.Target
		seg.Status = domain.SegmentStatusTranslated
		applied++
	}
	if applied > 0 {
		s.logger.Info("applied exact matches", "count", applied)
	}
	return applied
}

// Navigate moves the cursor one segment, staying within the document.
func (s *EditorSession) Navigate(dir domain.NavigateDirection) int {
	switch dir {
	case domain.NavigatePrev:
		if s.active > 0 {
			s.active--
		}
	case domain.NavigateNext:
		if s.active < len(s.segments)-1 {
			s.active++
		}
	}
	return s.active
}

// SetActive moves the cursor to index.
func (s *EditorSession) SetActive(index int) error {
	if index < 0 || index >= len(s.segments) {
		return fmt.Errorf("%w: active index %d out of range", domain.ErrInvalidInput, index)
	}
	s.active = index
	return nil
}

// Active returns the cursor position.
func (s *EditorSession) Active() int {
	return s.active
}

// Stats counts segments per status.
func (s *EditorSession) Stats() domain.TranslationStats {
	return domain.ComputeStats(s.segments)
}

// TotalWords counts the source words of the document.
func (s *EditorSession) TotalWords() int {
	total := 0
	for _, seg := range s.segments {
		total += domain.CountWords(seg.Source)
	}
	return total
}

// Filter returns the segments with the given status; an empty status
// returns every segment.
func (s *EditorSession) Filter(status domain.SegmentStatus) []domain.Segment {
	if status == "" {
		return s.Segments()
	}
	out := make([]domain.Segment, 0)
	for _, seg := range s.segments {
		if seg.Status == status {
			out = append(out, seg)
		}
	}
	return out
}

// Analysis prices the document by load-time match rate. A non-positive
// wordRate uses the session setting.
func (s *EditorSession) Analysis(wordRate float64) *domain.AnalysisData {
	if wordRate <= 0 {
		wordRate = s.settings.WordRate
	}
	return domain.Analyze(s.segments, wordRate)
}

// TMMatches returns the ranked fuzzy matches for a segment.
func (s *EditorSession) TMMatches(id int) ([]domain.TMMatch, error) {
	seg, err := s.Segment(id)
	if err != nil {
		return nil, err
	}
	limit := s.settings.FuzzyLimit
	if limit <= 0 {
		limit = tm.DefaultMatchLimit
	}
	minRate := s.settings.FuzzyMinRate
	if minRate <= 0 {
		minRate = tm.DefaultMinRate
	}
	return s.memory.FindRankedMatches(seg.Source, limit, minRate), nil
}

// TermMatches returns the termbase entries whose source occurs in the
// segment source, ignoring case.
func (s *EditorSession) TermMatches(id int) ([]domain.TermbaseEntry, error) {
	seg, err := s.Segment(id)
	if err != nil {
		return nil, err
	}
	source := strings.ToLower(seg.Source)
	out := make([]domain.TermbaseEntry, 0)
	for _, term := range s.termbase {
		if strings.Contains(source, strings.ToLower(term.Source)) {
			out = append(out, term)
		}
	}
	return out, nil
}

// AddTMEntries appends imported entries to the working set. Match rates of
// loaded segments are not recomputed.
func (s *EditorSession) AddTMEntries(entries []domain.TMEntry) {
	s.memory.AppendAll(entries)
	s.added = append(s.added, entries...)
}

// RunQA replaces the issue list with a full run over the document.
func (s *EditorSession) RunQA() []domain.QAIssue {
	s.issues = qa.RunFullQA(s.segments, s.termbase, qa.EnabledTypes(s.settings.QAChecks))
	s.logger.Info("qa run", "issues", len(s.issues))
	return s.Issues()
}

// Issues returns a copy of the current QA issues.
func (s *EditorSession) Issues() []domain.QAIssue {
	return append([]domain.QAIssue(nil), s.issues...)
}

// SetIssueIgnored flags the issue at index of the issue list.
func (s *EditorSession) SetIssueIgnored(index int, ignored bool) error {
	if index < 0 || index >= len(s.issues) {
		return fmt.Errorf("%w: issue index %d out of range", domain.ErrInvalidInput, index)
	}
	s.issues[index].Ignored = ignored
	return nil
}

// UnignoreAll clears the ignored flag of every issue.
func (s *EditorSession) UnignoreAll() {
	for i := range s.issues {
		s.issues[i].Ignored = false
	}
}

// Snapshot captures the restorable state of the session. Only entries
// added during the session are included.
func (s *EditorSession) Snapshot() *domain.SessionSnapshot {
	return &domain.SessionSnapshot{
		ID:           s.id,
		TargetLang:   s.targetLang,
		Settings:     s.settings,
		Segments:     s.Segments(),
		ActiveIndex:  s.active,
		Issues:       s.Issues(),
		AddedEntries: append([]domain.TMEntry(nil), s.added...),
	}
}

func (s *EditorSession) indexOf(id int) int {
	// ids are positional after load; fall back to a scan for resumed documents
	if id >= 0 && id < len(s.segments) && s.segments[id].ID == id {
		return id
	}
	for i, seg := range s.segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}
