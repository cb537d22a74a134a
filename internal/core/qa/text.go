package qa

import (
	"regexp"
	"sort"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`\d+([.,]\d+)?`)

	trailingPunctPattern = regexp.MustCompile(`[.!?。！？:;,،؛]+$`)

	// whitespace as understood by the editor front end, Unicode spaces included
	spaceClass      = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`
	multiSpaceRegex = regexp.MustCompile(spaceClass + `{2,}`)
	spaceRunRegex   = regexp.MustCompile(spaceClass + `+`)
)

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// extractNumbers returns the numeric tokens of text in sorted order.
// Duplicates are kept.
func extractNumbers(text string) []string {
	nums := numberPattern.FindAllString(text, -1)
	sort.Strings(nums)
	return nums
}

// trailingPunctuation returns the run of sentence punctuation ending text.
func trailingPunctuation(text string) string {
	return trailingPunctPattern.FindString(trim(text))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
