package qa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/catforge/cat-core/internal/core/domain"
	"github.com/catforge/cat-core/internal/core/matching"
)

// checkFunc inspects one segment and returns a message when it raises an
// issue. Checks are pure.
type checkFunc func(seg domain.Segment, all []domain.Segment, termbase []domain.TermbaseEntry) (string, bool)

// checks maps every issue type to its predicate. Evaluation order comes from
// domain.QAIssueTypes.
var checks = map[domain.QAIssueType]checkFunc{
	domain.QAEmptyTarget:             checkEmptyTarget,
	domain.QANumbersMismatch:         checkNumbersMismatch,
	domain.QATrailingPunctuation:     checkTrailingPunctuation,
	domain.QALeadingTrailingSpaces:   checkLeadingTrailingSpaces,
	domain.QADoubleSpaces:            checkDoubleSpaces,
	domain.QARepeatedWords:           checkRepeatedWords,
	domain.QAInconsistentTranslation: checkInconsistentTranslation,
	domain.QATerminologyNotUsed:      checkTerminologyUsage,
	domain.QATargetSameAsSource:      checkTargetSameAsSource,
}

func checkEmptyTarget(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Status != domain.SegmentStatusNew && trim(seg.Target) == "" {
		return "Target segment is empty", true
	}
	return "", false
}

func checkNumbersMismatch(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	sourceNums := extractNumbers(seg.Source)
	targetNums := extractNumbers(seg.Target)
	if equalStrings(sourceNums, targetNums) {
		return "", false
	}

	var missing, extra []string
	for _, n := range sourceNums {
		if !contains(targetNums, n) {
			missing = append(missing, n)
		}
	}
	for _, n := range targetNums {
		if !contains(sourceNums, n) {
			extra = append(extra, n)
		}
	}

	msg := "Numbers mismatch:"
	if len(missing) > 0 {
		msg += fmt.Sprintf(" missing [%s]", strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		msg += fmt.Sprintf(" extra [%s]", strings.Join(extra, ", "))
	}
	return msg, true
}

func checkTrailingPunctuation(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	sourcePunct := trailingPunctuation(seg.Source)
	targetPunct := trailingPunctuation(seg.Target)
	if sourcePunct == "" || sourcePunct == targetPunct {
		return "", false
	}

	if targetPunct == "" {
		targetPunct = "(none)"
	}
	return fmt.Sprintf(`Trailing punctuation mismatch: source "%s" vs target "%s"`, sourcePunct, targetPunct), true
}

func checkLeadingTrailingSpaces(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	leading := strings.HasPrefix(seg.Target, " ") && !strings.HasPrefix(seg.Source, " ")
	trailing := strings.HasSuffix(seg.Target, " ") && !strings.HasSuffix(seg.Source, " ")

	switch {
	case leading && trailing:
		return "Unexpected leading and trailing space(s) in target", true
	case leading:
		return "Unexpected leading space(s) in target", true
	case trailing:
		return "Unexpected trailing space(s) in target", true
	}
	return "", false
}

func checkDoubleSpaces(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" || !multiSpaceRegex.MatchString(seg.Target) {
		return "", false
	}
	return "Target contains multiple consecutive spaces", true
}

func checkRepeatedWords(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	words := spaceRunRegex.Split(strings.ToLower(seg.Target), -1)
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] && matching.TextLength(words[i]) > 1 {
			return fmt.Sprintf(`Repeated word: "%s"`, words[i]), true
		}
	}
	return "", false
}

func checkInconsistentTranslation(seg domain.Segment, all []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	different := 0
	for _, other := range all {
		if other.ID == seg.ID || other.Target == "" || other.Source != seg.Source {
			continue
		}
		if other.Target != seg.Target {
			different++
		}
	}
	if different == 0 {
		return "", false
	}
	return fmt.Sprintf("Inconsistent translation: same source has %d different translations", different+1), true
}

// checkTerminologyUsage reports the first termbase entry whose source occurs
// as a whole word in the segment source without its target in the translation.
func checkTerminologyUsage(seg domain.Segment, _ []domain.Segment, termbase []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}

	targetLower := strings.ToLower(seg.Target)
	for _, term := range termbase {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(term.Source)) + `\b`)
		if err != nil {
			continue
		}
		if !re.MatchString(seg.Source) {
			continue
		}
		if !strings.Contains(targetLower, strings.ToLower(term.Target)) {
			return fmt.Sprintf(`Term "%s" found in source but "%s" not in target`, term.Source, term.Target), true
		}
	}
	return "", false
}

func checkTargetSameAsSource(seg domain.Segment, _ []domain.Segment, _ []domain.TermbaseEntry) (string, bool) {
	if seg.Target == "" {
		return "", false
	}
	// short sources are often codes or numbers
	if matching.TextLength(seg.Source) <= 3 {
		return "", false
	}
	if seg.Source != seg.Target {
		return "", false
	}
	return "Target is identical to source (not translated?)", true
}
