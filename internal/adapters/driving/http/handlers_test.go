package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/catforge/cat-core/internal/adapters/driven/exchange"
	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/ports/driven/mocks"
	"github.com/catforge/cat-core/internal/core/services"
	"github.com/catforge/cat-core/internal/runtime"
)

type testPinger struct {
	err error
}

func (p testPinger) Ping(ctx context.Context) error { return p.err }

// newTestServer wires the real services over in-memory stores
func newTestServer(t *testing.T) (*Server, *runtime.Services) {
	t.Helper()

	tms := mocks.NewMockTMStore()
	terms := mocks.NewMockTermbaseStore()
	clients := mocks.NewMockClientStore()
	rt := runtime.NewServices(domain.DefaultEditorSettings())

	sessions := services.NewSessionService(services.SessionServiceConfig{
		TMStore:       tms,
		TermbaseStore: terms,
		Snapshots:     mocks.NewMockSnapshotStore(),
		Segmenter:     exchange.NewSegmenter(),
		Runtime:       rt,
	})

	srv := NewServer(
		Config{Version: "test", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		sessions,
		services.NewTMService(tms, nil, nil),
		services.NewTermbaseService(terms),
		services.NewClientService(clients, tms, terms),
		rt,
	)
	return srv, rt
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "GET", "/health", nil)
	expectStatus(t, rr, http.StatusOK)

	resp := decodeBody[StatusResponse](t, rr)
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", resp.Status)
	}
}

func TestVersionHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "GET", "/version", nil)
	expectStatus(t, rr, http.StatusOK)

	resp := decodeBody[VersionResponse](t, rr)
	if resp.Version != "test" {
		t.Errorf("expected version 'test', got %s", resp.Version)
	}
}

func TestReadyHandler(t *testing.T) {
	srv, rt := newTestServer(t)
	rt.RegisterBackend("postgres", testPinger{})

	rr := doRequest(t, srv, "GET", "/ready", nil)
	expectStatus(t, rr, http.StatusOK)

	rt.RegisterBackend("redis", testPinger{err: errors.New("connection refused")})

	rr = doRequest(t, srv, "GET", "/ready", nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)

	var resp struct {
		Status   string                  `json:"status"`
		Backends []runtime.BackendStatus `json:"backends"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got %s", resp.Status)
	}
	if len(resp.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(resp.Backends))
	}
}

func TestReadyHandler_NoRuntime(t *testing.T) {
	server := &Server{version: "test"}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()
	server.handleReady(rr, req)

	expectStatus(t, rr, http.StatusOK)
}

func TestSessionWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "POST", "/api/v1/tms", map[string]any{
		"name":         "Main",
		"source_lang":  "en",
		"target_langs": []string{"de"},
	})
	expectStatus(t, rr, http.StatusCreated)
	tm := decodeBody[domain.TranslationMemory](t, rr)

	rr = doRequest(t, srv, "POST", "/api/v1/tms/"+tm.ID+"/entries", map[string]any{
		"target_lang": "de",
		"source":      "Hello world.",
		"target":      "Hallo Welt.",
	})
	expectStatus(t, rr, http.StatusOK)

	rr = doRequest(t, srv, "POST", "/api/v1/sessions", map[string]any{
		"name":        "doc",
		"tm_ids":      []string{tm.ID},
		"source_lang": "en",
		"target_lang": "de",
		"text":        "Hello world. Good morning.",
	})
	expectStatus(t, rr, http.StatusCreated)
	info := decodeBody[domain.SessionInfo](t, rr)
	if info.Stats.Total != 2 {
		t.Fatalf("expected 2 segments, got %d", info.Stats.Total)
	}
	base := "/api/v1/sessions/" + info.ID

	rr = doRequest(t, srv, "GET", base+"/segments", nil)
	expectStatus(t, rr, http.StatusOK)
	segments := decodeBody[[]domain.Segment](t, rr)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].MatchRate < 100 {
		t.Errorf("expected exact match on first segment, got %d", segments[0].MatchRate)
	}

	rr = doRequest(t, srv, "POST", base+"/apply-exact-matches", nil)
	expectStatus(t, rr, http.StatusOK)
	if count := decodeBody[CountResponse](t, rr); count.Count != 1 {
		t.Errorf("expected 1 exact match applied, got %d", count.Count)
	}

	rr = doRequest(t, srv, "PUT", base+"/segments/1/target", UpdateTargetRequest{Target: "Guten Morgen."})
	expectStatus(t, rr, http.StatusOK)
	seg := decodeBody[domain.Segment](t, rr)
	if seg.Status != domain.SegmentStatusTranslated {
		t.Errorf("expected translated, got %s", seg.Status)
	}

	rr = doRequest(t, srv, "POST", base+"/segments/1/confirm", nil)
	expectStatus(t, rr, http.StatusOK)
	result := decodeBody[domain.ConfirmResult](t, rr)
	if !result.Confirmed {
		t.Error("expected segment to be confirmed")
	}

	rr = doRequest(t, srv, "GET", base+"/stats", nil)
	expectStatus(t, rr, http.StatusOK)
	stats := decodeBody[domain.TranslationStats](t, rr)
	if stats.Confirmed != 1 || stats.Translated != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	rr = doRequest(t, srv, "POST", base+"/qa", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeBody[[]domain.QAIssue](t, rr)

	rr = doRequest(t, srv, "GET", base+"/export/xliff", nil)
	expectStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != "application/xliff+xml" {
		t.Errorf("expected xliff content type, got %s", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `approved="yes"`) {
		t.Error("expected the confirmed unit to be approved")
	}
	if !strings.Contains(body, "Guten Morgen.") {
		t.Error("expected exported target text")
	}

	rr = doRequest(t, srv, "DELETE", base, nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = doRequest(t, srv, "GET", base, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestSessionNavigation(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "POST", "/api/v1/sessions", map[string]any{
		"sources": []string{"One.", "Two.", "Three."},
	})
	expectStatus(t, rr, http.StatusCreated)
	info := decodeBody[domain.SessionInfo](t, rr)
	base := "/api/v1/sessions/" + info.ID

	rr = doRequest(t, srv, "POST", base+"/navigate", NavigateRequest{Direction: domain.NavigateNext})
	expectStatus(t, rr, http.StatusOK)
	if active := decodeBody[ActiveResponse](t, rr); active.Active != 1 {
		t.Errorf("expected active 1, got %d", active.Active)
	}

	rr = doRequest(t, srv, "PUT", base+"/active", SetActiveRequest{Index: 2})
	expectStatus(t, rr, http.StatusOK)

	rr = doRequest(t, srv, "PUT", base+"/active", SetActiveRequest{Index: 9})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSessionErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing session", "GET", "/api/v1/sessions/nope", nil, http.StatusNotFound},
		{"empty document", "POST", "/api/v1/sessions", map[string]any{}, http.StatusBadRequest},
		{"malformed body", "POST", "/api/v1/sessions", "{not json", http.StatusBadRequest},
		{"bad segment id", "PUT", "/api/v1/sessions/nope/segments/abc/target", UpdateTargetRequest{}, http.StatusBadRequest},
		{"missing tm", "GET", "/api/v1/tms/nope", nil, http.StatusNotFound},
		{"tm without name", "POST", "/api/v1/tms", map[string]any{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, tt.method, tt.path, tt.body)
			expectStatus(t, rr, tt.want)

			resp := decodeBody[ErrorResponse](t, rr)
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestSegmentNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "POST", "/api/v1/sessions", map[string]any{"sources": []string{"One."}})
	expectStatus(t, rr, http.StatusCreated)
	info := decodeBody[domain.SessionInfo](t, rr)

	rr = doRequest(t, srv, "POST", "/api/v1/sessions/"+info.ID+"/segments/5/confirm", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestTMXRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "POST", "/api/v1/tms", map[string]any{
		"name":         "Imported",
		"source_lang":  "en",
		"target_langs": []string{"fr"},
	})
	expectStatus(t, rr, http.StatusCreated)
	tm := decodeBody[domain.TranslationMemory](t, rr)

	tmx := `<?xml version="1.0" encoding="UTF-8"?>
<tmx version="1.4">
  <header srclang="en" datatype="plaintext" segtype="sentence"/>
  <body>
    <tu>
      <tuv xml:lang="en"><seg>Good night.</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonne nuit.</seg></tuv>
    </tu>
    <tu>
      <tuv xml:lang="en"><seg>Thank you.</seg></tuv>
      <tuv xml:lang="fr"><seg>Merci.</seg></tuv>
    </tu>
  </body>
</tmx>`

	rr = doRequest(t, srv, "POST", "/api/v1/tms/"+tm.ID+"/import/tmx", tmx)
	expectStatus(t, rr, http.StatusOK)
	if count := decodeBody[CountResponse](t, rr); count.Count != 2 {
		t.Fatalf("expected 2 imported entries, got %d", count.Count)
	}

	rr = doRequest(t, srv, "GET", "/api/v1/tms/"+tm.ID+"/export/tmx", nil)
	expectStatus(t, rr, http.StatusOK)

	doc, err := exchange.DecodeTMX(rr.Body)
	if err != nil {
		t.Fatalf("failed to decode export: %v", err)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("expected 2 exported entries, got %d", len(doc.Entries))
	}
	if doc.SourceLang != "en" || doc.TargetLang != "fr" {
		t.Errorf("unexpected languages %s/%s", doc.SourceLang, doc.TargetLang)
	}

	rr = doRequest(t, srv, "POST", "/api/v1/tms/"+tm.ID+"/import/tmx", "<tmx><body></body>")
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestImportXLIFF(t *testing.T) {
	srv, _ := newTestServer(t)

	xliff := `<?xml version="1.0" encoding="UTF-8"?>
<xliff version="1.2">
  <file source-language="en" target-language="es" original="doc.txt" datatype="plaintext">
    <body>
      <trans-unit id="1"><source>Yes.</source><target state="final">Sí.</target></trans-unit>
      <trans-unit id="2"><source>No.</source></trans-unit>
    </body>
  </file>
</xliff>`

	rr := doRequest(t, srv, "POST", "/api/v1/sessions/import/xliff", xliff)
	expectStatus(t, rr, http.StatusCreated)

	info := decodeBody[domain.SessionInfo](t, rr)
	if info.SourceLang != "en" || info.TargetLang != "es" {
		t.Errorf("unexpected languages %s/%s", info.SourceLang, info.TargetLang)
	}
	if info.Stats.Confirmed != 1 || info.Stats.New != 1 {
		t.Errorf("unexpected stats: %+v", info.Stats)
	}
}

func TestEditorSettings(t *testing.T) {
	srv, rt := newTestServer(t)

	rr := doRequest(t, srv, "GET", "/api/v1/settings/editor", nil)
	expectStatus(t, rr, http.StatusOK)
	settings := decodeBody[domain.EditorSettings](t, rr)
	if settings.FuzzyLimit != domain.DefaultEditorSettings().FuzzyLimit {
		t.Errorf("expected default fuzzy limit, got %d", settings.FuzzyLimit)
	}

	rr = doRequest(t, srv, "PUT", "/api/v1/settings/editor", map[string]any{"fuzzy_min_rate": 80})
	expectStatus(t, rr, http.StatusOK)
	if got := rt.EditorDefaults(); got.FuzzyMinRate != 80 || got.FuzzyLimit != settings.FuzzyLimit {
		t.Errorf("partial update not applied: %+v", got)
	}

	rr = doRequest(t, srv, "PUT", "/api/v1/settings/editor", map[string]any{"fuzzy_min_rate": 140})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestClientsAndTermbase(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, "POST", "/api/v1/clients", map[string]any{"name": "Acme"})
	expectStatus(t, rr, http.StatusCreated)
	client := decodeBody[domain.Client](t, rr)

	rr = doRequest(t, srv, "POST", "/api/v1/termbase", map[string]any{
		"client_id": client.ID,
		"source":    "invoice",
		"target":    "Rechnung",
	})
	expectStatus(t, rr, http.StatusOK)
	term := decodeBody[domain.StoredTermbaseEntry](t, rr)

	rr = doRequest(t, srv, "GET", "/api/v1/termbase?client_id="+client.ID, nil)
	expectStatus(t, rr, http.StatusOK)
	if terms := decodeBody[[]domain.StoredTermbaseEntry](t, rr); len(terms) != 1 {
		t.Errorf("expected 1 term, got %d", len(terms))
	}

	rr = doRequest(t, srv, "GET", "/api/v1/clients/"+client.ID+"/usage", nil)
	expectStatus(t, rr, http.StatusOK)
	if usage := decodeBody[domain.ClientUsage](t, rr); usage.TermbaseCount != 1 {
		t.Errorf("expected 1 termbase entry, got %d", usage.TermbaseCount)
	}

	rr = doRequest(t, srv, "DELETE", "/api/v1/termbase/"+term.ID, nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = doRequest(t, srv, "GET", "/api/v1/clients", nil)
	expectStatus(t, rr, http.StatusOK)
	if clients := decodeBody[[]domain.Client](t, rr); len(clients) != 1 {
		t.Errorf("expected 1 client, got %d", len(clients))
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusAccepted, map[string]string{"key": "value"})

	if rr.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
}

func TestWriteServiceError(t *testing.T) {
	server := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrSegmentNotFound, http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrNoDocument, http.StatusBadRequest},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrQueueFull, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		server.writeServiceError(rr, tt.err)
		if rr.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rr.Code)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unexpected split: %v", got)
	}
	if splitList("") != nil {
		t.Error("expected nil for empty input")
	}
}
