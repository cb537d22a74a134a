package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catforge/cat-core/internal/core/domain"
)

func TestParseProfile_Empty(t *testing.T) {
	settings, err := ParseProfile(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEditorSettings(), settings)
}

func TestParseProfile_Overrides(t *testing.T) {
	data := []byte(`
auto_propagation: false
instant_qa: false
word_rate: 0
fuzzy_min_rate: 70
fuzzy_limit: 3
qa_checks:
  - type: double_spaces
    enabled: false
  - type: target_same_as_source
    enabled: false
`)

	settings, err := ParseProfile(data)
	require.NoError(t, err)

	assert.False(t, settings.AutoPropagation)
	assert.False(t, settings.InstantQA)
	assert.Equal(t, 0.0, settings.WordRate)
	assert.Equal(t, 70, settings.FuzzyMinRate)
	assert.Equal(t, 3, settings.FuzzyLimit)

	require.Len(t, settings.QAChecks, len(domain.QAIssueTypes))
	enabled := domain.EnabledQATypes(settings.QAChecks)
	assert.NotContains(t, enabled, domain.QADoubleSpaces)
	assert.NotContains(t, enabled, domain.QATargetSameAsSource)
	assert.Contains(t, enabled, domain.QAEmptyTarget)
	// toggles keep table order and metadata
	assert.Equal(t, domain.QAEmptyTarget, settings.QAChecks[0].Type)
	assert.Equal(t, "Double Spaces", settings.QAChecks[4].Name)
}

func TestParseProfile_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown check":  "qa_checks:\n  - type: spelling\n    enabled: true\n",
		"rate range":     "fuzzy_min_rate: 150\n",
		"zero limit":     "fuzzy_limit: 0\n",
		"negative rate":  "word_rate: -1\n",
		"malformed yaml": "auto_propagation: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(data))
			assert.Error(t, err)
		})
	}
}
