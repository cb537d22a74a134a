package domain

// QAIssueType identifies one of the fixed QA checks
type QAIssueType string

const (
	QAEmptyTarget             QAIssueType = "empty_target"
	QANumbersMismatch         QAIssueType = "numbers_mismatch"
	QATrailingPunctuation     QAIssueType = "trailing_punctuation"
	QALeadingTrailingSpaces   QAIssueType = "leading_trailing_spaces"
	QADoubleSpaces            QAIssueType = "double_spaces"
	QARepeatedWords           QAIssueType = "repeated_words"
	QAInconsistentTranslation QAIssueType = "inconsistent_translation"
	QATerminologyNotUsed      QAIssueType = "terminology_not_used"
	QATargetSameAsSource      QAIssueType = "target_same_as_source"
)

// QAIssueTypes lists every check in evaluation order
var QAIssueTypes = []QAIssueType{
	QAEmptyTarget,
	QANumbersMismatch,
	QATrailingPunctuation,
	QALeadingTrailingSpaces,
	QADoubleSpaces,
	QARepeatedWords,
	QAInconsistentTranslation,
	QATerminologyNotUsed,
	QATargetSameAsSource,
}

// QASeverity grades an issue
type QASeverity string

const (
	QASeverityError   QASeverity = "error"
	QASeverityWarning QASeverity = "warning"
)

type qaTypeInfo struct {
	name        string
	description string
	severity    QASeverity
}

var qaTypeInfos = map[QAIssueType]qaTypeInfo{
	QAEmptyTarget:             {"Empty Target", "Target segment is empty", QASeverityError},
	QANumbersMismatch:         {"Numbers Mismatch", "Numbers in source and target do not match", QASeverityWarning},
	QATrailingPunctuation:     {"Trailing Punctuation", "Trailing punctuation differs between source and target", QASeverityWarning},
	QALeadingTrailingSpaces:   {"Leading/Trailing Spaces", "Target has unexpected leading or trailing spaces", QASeverityWarning},
	QADoubleSpaces:            {"Double Spaces", "Target contains multiple consecutive spaces", QASeverityWarning},
	QARepeatedWords:           {"Repeated Words", "Same word appears consecutively in target", QASeverityWarning},
	QAInconsistentTranslation: {"Inconsistent Translation", "Same source has different translations", QASeverityWarning},
	QATerminologyNotUsed:      {"Terminology Not Used", "Term from termbase not found in target", QASeverityWarning},
	QATargetSameAsSource:      {"Target Same as Source", "Target is identical to source", QASeverityWarning},
}

// Valid reports whether t is a known check type
func (t QAIssueType) Valid() bool {
	_, ok := qaTypeInfos[t]
	return ok
}

// Severity returns the fixed severity of the check
func (t QAIssueType) Severity() QASeverity {
	return qaTypeInfos[t].severity
}

// DisplayName returns the human-readable check name, or the raw type if unknown
func (t QAIssueType) DisplayName() string {
	if info, ok := qaTypeInfos[t]; ok {
		return info.name
	}
	return string(t)
}

// QAIssue is one flagged defect in a segment.
// Ignored is toggled by the consumer and never read by the checks.
type QAIssue struct {
	Type      QAIssueType `json:"type"`
	Severity  QASeverity  `json:"severity"`
	Message   string      `json:"message"`
	SegmentID int         `json:"segment_id"`
	Ignored   bool        `json:"ignored,omitempty"`
}

// QACheck is the configuration record of a check
type QACheck struct {
	Type        QAIssueType `json:"type" yaml:"type"`
	Name        string      `json:"name" yaml:"-"`
	Description string      `json:"description" yaml:"-"`
	Severity    QASeverity  `json:"severity" yaml:"-"`
	Enabled     bool        `json:"enabled" yaml:"enabled"`
}

// DefaultQAChecks returns the full battery, all enabled, in evaluation order
func DefaultQAChecks() []QACheck {
	checks := make([]QACheck, 0, len(QAIssueTypes))
	for _, t := range QAIssueTypes {
		info := qaTypeInfos[t]
		checks = append(checks, QACheck{
			Type:        t,
			Name:        info.name,
			Description: info.description,
			Severity:    info.severity,
			Enabled:     true,
		})
	}
	return checks
}

// EnabledQATypes returns the types of the enabled checks
func EnabledQATypes(checks []QACheck) []QAIssueType {
	types := make([]QAIssueType, 0, len(checks))
	for _, c := range checks {
		if c.Enabled {
			types = append(types, c.Type)
		}
	}
	return types
}
