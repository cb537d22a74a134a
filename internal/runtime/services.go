package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/catforge/cat-core/internal/core/domain"
)

// Pinger is a backend that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds state that can change while the process runs: the editor
// profile applied to new sessions and the backends checked for readiness.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	editor   domain.EditorSettings
	backends map[string]Pinger
}

// NewServices creates a new Services registry
func NewServices(editor domain.EditorSettings) *Services {
	return &Services{
		editor:   cloneSettings(editor),
		backends: make(map[string]Pinger),
	}
}

// EditorDefaults returns a copy of the current editor profile
func (s *Services) EditorDefaults() domain.EditorSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.editor)
}

// SetEditorDefaults replaces the editor profile used by sessions created
// from now on. Existing sessions keep their settings.
func (s *Services) SetEditorDefaults(settings domain.EditorSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor = cloneSettings(settings)
	return nil
}

// RegisterBackend adds a backend to the readiness checks
func (s *Services) RegisterBackend(name string, p Pinger) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[name] = p
}

// ValidateAndRegister pings a backend before registering it
func (s *Services) ValidateAndRegister(ctx context.Context, name string, p Pinger) error {
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.RegisterBackend(name, p)
	return nil
}

// BackendStatus is the readiness of one backend
type BackendStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Ready pings every registered backend. It reports false if any failed.
func (s *Services) Ready(ctx context.Context) ([]BackendStatus, bool) {
	s.mu.RLock()
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	backends := make(map[string]Pinger, len(s.backends))
	for k, v := range s.backends {
		backends[k] = v
	}
	s.mu.RUnlock()

	sort.Strings(names)
	statuses := make([]BackendStatus, 0, len(names))
	ready := true
	for _, name := range names {
		st := BackendStatus{Name: name, OK: true}
		if err := backends[name].Ping(ctx); err != nil {
			st.OK = false
			st.Error = err.Error()
			ready = false
		}
		statuses = append(statuses, st)
	}
	return statuses, ready
}

func validateSettings(s domain.EditorSettings) error {
	if s.WordRate < 0 {
		return fmt.Errorf("%w: word_rate must not be negative", domain.ErrInvalidInput)
	}
	if s.FuzzyMinRate < 0 || s.FuzzyMinRate > 100 {
		return fmt.Errorf("%w: fuzzy_min_rate must be between 0 and 100", domain.ErrInvalidInput)
	}
	if s.FuzzyLimit <= 0 {
		return fmt.Errorf("%w: fuzzy_limit must be positive", domain.ErrInvalidInput)
	}
	for _, c := range s.QAChecks {
		if !c.Type.Valid() {
			return fmt.Errorf("%w: unknown qa check %q", domain.ErrInvalidInput, c.Type)
		}
	}
	return nil
}

func cloneSettings(s domain.EditorSettings) domain.EditorSettings {
	s.QAChecks = append([]domain.QACheck(nil), s.QAChecks...)
	return s
}
