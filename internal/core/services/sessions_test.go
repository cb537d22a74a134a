package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven/mocks"
	"github.com/catforge/cat-core/internal/core/ports/driving"
	"github.com/catforge/cat-core/internal/runtime"
)

// lineSegmenter splits on newlines regardless of delimiter
type lineSegmenter struct{}

func (lineSegmenter) Segment(text string, _ domain.SegmentDelimiter) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type sessionFixture struct {
	svc       driving.SessionService
	tms       *mocks.MockTMStore
	terms     *mocks.MockTermbaseStore
	snapshots *mocks.MockSnapshotStore
	sink      *mocks.MockIntentSink
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	ctx := context.Background()

	f := &sessionFixture{
		tms:       mocks.NewMockTMStore(),
		terms:     mocks.NewMockTermbaseStore(),
		snapshots: mocks.NewMockSnapshotStore(),
		sink:      mocks.NewMockIntentSink(),
	}
	require.NoError(t, f.tms.SaveTM(ctx, &domain.TranslationMemory{ID: "tm-1", Name: "Main"}))
	_, err := f.tms.InsertEntries(ctx, "tm-1", "ko", []domain.TMEntry{
		{Source: "Hello world", Target: "안녕 세상"},
	})
	require.NoError(t, err)
	require.NoError(t, f.terms.Upsert(ctx, &domain.StoredTermbaseEntry{
		ID:            "term-1",
		ClientID:      "client-1",
		TermbaseEntry: domain.TermbaseEntry{Source: "world", Target: "세상"},
	}))

	f.svc = NewSessionService(SessionServiceConfig{
		TMStore:       f.tms,
		TermbaseStore: f.terms,
		Snapshots:     f.snapshots,
		Segmenter:     lineSegmenter{},
		Sink:          f.sink,
	})
	return f
}

func (f *sessionFixture) create(t *testing.T, sources ...string) *domain.SessionInfo {
	t.Helper()
	info, err := f.svc.Create(context.Background(), driving.CreateSessionRequest{
		Name:       "doc.txt",
		ClientID:   "client-1",
		TMIDs:      []string{"tm-1"},
		TargetLang: "ko",
		Sources:    sources,
	})
	require.NoError(t, err)
	return info
}

func TestSessionService_Create(t *testing.T) {
	f := newSessionFixture(t)

	info := f.create(t, "Hello world", "Goodbye")

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "doc.txt", info.Name)
	assert.Equal(t, 2, info.Stats.Total)
	assert.Equal(t, 2, info.Stats.New)
	assert.Equal(t, 1, info.TMEntries)
	assert.Equal(t, 1, f.snapshots.Saves())

	segments, err := f.svc.Segments(context.Background(), info.ID, "")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 100, segments[0].MatchRate)
}

func TestSessionService_Create_FromText(t *testing.T) {
	f := newSessionFixture(t)

	info, err := f.svc.Create(context.Background(), driving.CreateSessionRequest{
		Text:      "One\n\nTwo\nThree",
		Delimiter: domain.DelimiterNewline,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Stats.Total)
}

func TestSessionService_Create_Errors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, driving.CreateSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	_, err = f.svc.Create(ctx, driving.CreateSessionRequest{Text: "x", Delimiter: "comma"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noSegmenter := NewSessionService(SessionServiceConfig{})
	_, err = noSegmenter.Create(ctx, driving.CreateSessionRequest{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_ConfirmEmitsIntent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Good morning", "Good night")

	_, err := f.svc.UpdateTarget(ctx, info.ID, 0, "좋은 아침")
	require.NoError(t, err)

	result, err := f.svc.Confirm(ctx, info.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, result.EntryAdded)
	assert.Equal(t, 1, result.Active)

	tasks := f.sink.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskTypeEntryAdded, tasks[0].Type)
	assert.Equal(t, "tm-1", tasks[0].TMID)
	assert.Equal(t, "ko", tasks[0].TargetLang)
}

func TestSessionService_ApplyAllAndNavigate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Hello world", "Other")

	applied, err := f.svc.ApplyAllExactMatches(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	translated, err := f.svc.Segments(ctx, info.ID, domain.SegmentStatusTranslated)
	require.NoError(t, err)
	require.Len(t, translated, 1)
	assert.Equal(t, "안녕 세상", translated[0].Target)

	active, err := f.svc.Navigate(ctx, info.ID, domain.NavigateNext)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	_, err = f.svc.Navigate(ctx, info.ID, "up")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, f.svc.SetActive(ctx, info.ID, 9), domain.ErrInvalidInput)
}

func TestSessionService_Lookups(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Hello world")

	matches, err := f.svc.TMMatches(ctx, info.ID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 100, matches[0].MatchRate)

	terms, err := f.svc.TermMatches(ctx, info.ID, 0)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "세상", terms[0].Target)

	analysis, err := f.svc.Analysis(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.TotalWords)

	_, err = f.svc.TMMatches(ctx, info.ID, 42)
	assert.ErrorIs(t, err, domain.ErrSegmentNotFound)
}

func TestSessionService_QA(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Hello world", "Price 10")

	issues, err := f.svc.RunQA(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, domain.QAEmptyTarget, issues[0].Type)

	require.NoError(t, f.svc.SetIssueIgnored(ctx, info.ID, 1, true))
	issues, err = f.svc.Issues(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, issues[1].Ignored)

	assert.ErrorIs(t, f.svc.SetIssueIgnored(ctx, info.ID, 5, true), domain.ErrInvalidInput)
}

func TestSessionService_ImportTMEntries(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Thank you")

	n, err := f.svc.ImportTMEntries(ctx, info.ID, []domain.TMEntry{{Source: "Thank you", Target: "감사합니다"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TMEntries)

	tasks := f.sink.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskTypeEntriesImported, tasks[0].Type)
}

func TestSessionService_RestoreFromSnapshot(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Good morning", "Good night")

	_, err := f.svc.UpdateTarget(ctx, info.ID, 1, "잘 자")
	require.NoError(t, err)
	require.NoError(t, f.svc.SetActive(ctx, info.ID, 1))

	// a fresh service sharing the snapshot store has nothing resident
	other := NewSessionService(SessionServiceConfig{
		TMStore:       f.tms,
		TermbaseStore: f.terms,
		Snapshots:     f.snapshots,
	})

	restored, err := other.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", restored.Name)
	assert.Equal(t, 1, restored.ActiveIndex)
	assert.Equal(t, 1, restored.Stats.Translated)

	segments, err := other.Segments(ctx, info.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "잘 자", segments[1].Target)
}

func TestSessionService_Delete(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "One")

	require.NoError(t, f.svc.Delete(ctx, info.ID))

	_, err := f.svc.Get(ctx, info.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_DeleteWaitsForRunningEdit(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "One", "Two")

	svc := f.svc.(*sessionService)
	h, err := svc.lookup(ctx, info.ID)
	require.NoError(t, err)

	// hold the session so the edit and the delete queue up behind it
	h.mu.Lock()
	edited := make(chan error, 1)
	go func() {
		_, err := f.svc.UpdateTarget(ctx, info.ID, 0, "하나")
		edited <- err
	}()
	deleted := make(chan error, 1)
	go func() {
		deleted <- f.svc.Delete(ctx, info.ID)
	}()
	time.Sleep(20 * time.Millisecond)
	h.mu.Unlock()

	require.NoError(t, <-deleted)
	if err := <-edited; err != nil {
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	_, err = f.svc.Get(ctx, info.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.snapshots.Get(ctx, info.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_EditOnDeletedHandleIsNotPersisted(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "One")

	svc := f.svc.(*sessionService)
	h, err := svc.lookup(ctx, info.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, info.ID))

	// an edit that looked the session up before the delete
	err = svc.run(ctx, h, true, func(h *sessionHandle) error {
		return h.editor.UpdateTarget(0, "하나")
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(ctx, info.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, info.ID), domain.ErrNotFound)
}

func TestSessionService_SnapshotOmitsLoadedEntries(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	info := f.create(t, "Good morning", "Good night")

	_, err := f.svc.UpdateTarget(ctx, info.ID, 0, "좋은 아침")
	require.NoError(t, err)
	snapshot, err := f.snapshots.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.AddedEntries)

	_, err = f.svc.Confirm(ctx, info.ID, 0)
	require.NoError(t, err)
	snapshot, err = f.snapshots.Get(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.AddedEntries, 1)
	assert.Equal(t, "Good morning", snapshot.AddedEntries[0].Source)

	restoredInfo := func() *domain.SessionInfo {
		other := NewSessionService(SessionServiceConfig{
			TMStore:       f.tms,
			TermbaseStore: f.terms,
			Snapshots:     f.snapshots,
		})
		got, err := other.Get(ctx, info.ID)
		require.NoError(t, err)
		return got
	}

	// the stored entry is reloaded and the confirmed one carried over
	assert.Equal(t, 2, restoredInfo().TMEntries)

	// once the worker has persisted it the entry is not duplicated
	_, err = f.tms.InsertEntries(ctx, "tm-1", "ko", []domain.TMEntry{{Source: "Good morning", Target: "좋은 아침"}})
	require.NoError(t, err)
	assert.Equal(t, 2, restoredInfo().TMEntries)
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := NewSessionService(SessionServiceConfig{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), domain.ErrNotFound)
}

func TestSessionService_CreateUsesRuntimeProfile(t *testing.T) {
	ctx := context.Background()
	profile := domain.DefaultEditorSettings()
	profile.AutoPropagation = false
	rt := runtime.NewServices(profile)

	svc := NewSessionService(SessionServiceConfig{Runtime: rt})
	info, err := svc.Create(ctx, driving.CreateSessionRequest{Sources: []string{"X", "X"}})
	require.NoError(t, err)

	_, err = svc.UpdateTarget(ctx, info.ID, 0, "Y")
	require.NoError(t, err)
	result, err := svc.Confirm(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Propagated)

	// later profile changes only affect new sessions
	require.NoError(t, rt.SetEditorDefaults(domain.DefaultEditorSettings()))
	snap, err := svc.Snapshot(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, snap.Settings.AutoPropagation)
}
