package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/catforge/cat-core/internal/core/domain"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func TestNewServices(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())

	got := svc.EditorDefaults()
	if !got.AutoPropagation || got.FuzzyLimit != 5 {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestEditorDefaults_ReturnsCopy(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())

	got := svc.EditorDefaults()
	got.QAChecks[0].Enabled = false

	if !svc.EditorDefaults().QAChecks[0].Enabled {
		t.Error("mutating a returned profile changed the registry")
	}
}

func TestSetEditorDefaults(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())

	next := domain.DefaultEditorSettings()
	next.AutoPropagation = false
	next.FuzzyMinRate = 75
	if err := svc.SetEditorDefaults(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := svc.EditorDefaults()
	if got.AutoPropagation || got.FuzzyMinRate != 75 {
		t.Errorf("profile not replaced: %+v", got)
	}
}

func TestSetEditorDefaults_Invalid(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())

	tests := []struct {
		name   string
		mutate func(*domain.EditorSettings)
	}{
		{"negative word rate", func(s *domain.EditorSettings) { s.WordRate = -1 }},
		{"min rate above 100", func(s *domain.EditorSettings) { s.FuzzyMinRate = 101 }},
		{"zero limit", func(s *domain.EditorSettings) { s.FuzzyLimit = 0 }},
		{"unknown check", func(s *domain.EditorSettings) {
			s.QAChecks = append(s.QAChecks, domain.QACheck{Type: "spelling", Enabled: true})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultEditorSettings()
			tt.mutate(&settings)
			err := svc.SetEditorDefaults(settings)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if svc.EditorDefaults().FuzzyLimit != 5 {
		t.Error("rejected profile must not be applied")
	}
}

func TestReady(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())
	ctx := context.Background()

	statuses, ready := svc.Ready(ctx)
	if !ready || len(statuses) != 0 {
		t.Errorf("expected ready with no backends, got %v %v", ready, statuses)
	}

	svc.RegisterBackend("postgres", &fakePinger{})
	svc.RegisterBackend("redis", &fakePinger{err: errors.New("connection refused")})
	svc.RegisterBackend("ignored", nil)

	statuses, ready = svc.Ready(ctx)
	if ready {
		t.Error("expected not ready when a backend fails")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "postgres" || !statuses[0].OK {
		t.Errorf("unexpected postgres status: %+v", statuses[0])
	}
	if statuses[1].Name != "redis" || statuses[1].OK || statuses[1].Error != "connection refused" {
		t.Errorf("unexpected redis status: %+v", statuses[1])
	}
}

func TestValidateAndRegister(t *testing.T) {
	svc := NewServices(domain.DefaultEditorSettings())
	ctx := context.Background()

	if err := svc.ValidateAndRegister(ctx, "queue", &fakePinger{err: errors.New("down")}); err == nil {
		t.Error("expected error for failing backend")
	}
	if err := svc.ValidateAndRegister(ctx, "queue", &fakePinger{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	statuses, ready := svc.Ready(ctx)
	if !ready || len(statuses) != 1 {
		t.Errorf("expected one healthy backend, got %v %v", ready, statuses)
	}
}
