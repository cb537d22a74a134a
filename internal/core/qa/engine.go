// Package qa runs the translation quality checks over segments.
package qa

import "github.com/catforge/cat-core/internal/core/domain"

// RunSegmentQA evaluates the enabled checks against one segment. Issues are
// returned in check order, at most one per type.
func RunSegmentQA(seg domain.Segment, all []domain.Segment, termbase []domain.TermbaseEntry, enabled []domain.QAIssueType) []domain.QAIssue {
	issues := make([]domain.QAIssue, 0)
	for _, typ := range domain.QAIssueTypes {
		if !isEnabled(enabled, typ) {
			continue
		}
		msg, ok := checks[typ](seg, all, termbase)
		if !ok {
			continue
		}
		issues = append(issues, domain.QAIssue{
			Type:      typ,
			Severity:  typ.Severity(),
			Message:   msg,
			SegmentID: seg.ID,
		})
	}
	return issues
}

// RunFullQA checks every segment that has left the new status, in document
// order.
func RunFullQA(segments []domain.Segment, termbase []domain.TermbaseEntry, enabled []domain.QAIssueType) []domain.QAIssue {
	issues := make([]domain.QAIssue, 0)
	for _, seg := range segments {
		if seg.Status == domain.SegmentStatusNew {
			continue
		}
		issues = append(issues, RunSegmentQA(seg, segments, termbase, enabled)...)
	}
	return issues
}

// ReplaceSegmentIssues drops the issues of segmentID and appends fresh.
func ReplaceSegmentIssues(issues []domain.QAIssue, segmentID int, fresh []domain.QAIssue) []domain.QAIssue {
	out := make([]domain.QAIssue, 0, len(issues)+len(fresh))
	for _, issue := range issues {
		if issue.SegmentID != segmentID {
			out = append(out, issue)
		}
	}
	return append(out, fresh...)
}

// DefaultChecks returns the full battery, all enabled.
func DefaultChecks() []domain.QACheck {
	return domain.DefaultQAChecks()
}

// EnabledTypes returns the types of the enabled checks.
func EnabledTypes(checks []domain.QACheck) []domain.QAIssueType {
	return domain.EnabledQATypes(checks)
}

// CountBySeverity tallies issues that are not ignored.
func CountBySeverity(issues []domain.QAIssue) (errors, warnings int) {
	for _, issue := range issues {
		if issue.Ignored {
			continue
		}
		switch issue.Severity {
		case domain.QASeverityError:
			errors++
		case domain.QASeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

func isEnabled(enabled []domain.QAIssueType, typ domain.QAIssueType) bool {
	for _, t := range enabled {
		if t == typ {
			return true
		}
	}
	return false
}
