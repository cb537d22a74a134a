package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/catforge/cat-core/internal/core/domain"
)

// profile is the YAML form of the editor settings. Pointer fields tell an
// omitted key from an explicit zero.
type profile struct {
	AutoPropagation *bool          `yaml:"auto_propagation"`
	InstantQA       *bool          `yaml:"instant_qa"`
	WordRate        *float64       `yaml:"word_rate"`
	FuzzyMinRate    *int           `yaml:"fuzzy_min_rate"`
	FuzzyLimit      *int           `yaml:"fuzzy_limit"`
	QAChecks        []profileCheck `yaml:"qa_checks"`
}

type profileCheck struct {
	Type    domain.QAIssueType `yaml:"type"`
	Enabled bool               `yaml:"enabled"`
}

// LoadProfile reads an editor profile file and merges it over the defaults.
func LoadProfile(path string) (domain.EditorSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.EditorSettings{}, fmt.Errorf("read editor profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile merges YAML editor settings over the defaults. QA toggles
// are applied to the default battery by type; unknown types are rejected.
func ParseProfile(data []byte) (domain.EditorSettings, error) {
	settings := domain.DefaultEditorSettings()

	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return settings, fmt.Errorf("parse editor profile: %w", err)
	}

	if p.AutoPropagation != nil {
		settings.AutoPropagation = *p.AutoPropagation
	}
	if p.InstantQA != nil {
		settings.InstantQA = *p.InstantQA
	}
	if p.WordRate != nil {
		if *p.WordRate < 0 {
			return settings, fmt.Errorf("word_rate must not be negative")
		}
		settings.WordRate = *p.WordRate
	}
	if p.FuzzyMinRate != nil {
		if *p.FuzzyMinRate < 0 || *p.FuzzyMinRate > 100 {
			return settings, fmt.Errorf("fuzzy_min_rate must be between 0 and 100")
		}
		settings.FuzzyMinRate = *p.FuzzyMinRate
	}
	if p.FuzzyLimit != nil {
		if *p.FuzzyLimit <= 0 {
			return settings, fmt.Errorf("fuzzy_limit must be positive")
		}
		settings.FuzzyLimit = *p.FuzzyLimit
	}

	for _, toggle := range p.QAChecks {
		if !toggle.Type.Valid() {
			return settings, fmt.Errorf("unknown qa check %q", toggle.Type)
		}
		for i := range settings.QAChecks {
			if settings.QAChecks[i].Type == toggle.Type {
				settings.QAChecks[i].Enabled = toggle.Enabled
			}
		}
	}
	return settings, nil
}
