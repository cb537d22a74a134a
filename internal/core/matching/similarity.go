// Package matching scores segments against translation memory entries.
package matching

import (
	"math"
	"strings"
	"unicode/utf16"
)

// MatchRate returns the similarity of a and b as a percentage in [0,100].
// Identical strings score 100 without computing a distance. Otherwise the
// edit distance is taken over the lowercased strings and normalised by the
// longer of the two original lengths. Lengths and distances are counted in
// UTF-16 code units, the unit editor clients measure text in.
func MatchRate(a, b string) int {
	if a == b {
		return 100
	}

	maxLen := TextLength(a)
	if n := TextLength(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 100
	}

	d := Levenshtein(strings.ToLower(a), strings.ToLower(b))
	rate := int(math.Floor((1-float64(d)/float64(maxLen))*100 + 0.5))
	if rate < 0 {
		return 0
	}
	return rate
}

// TextLength returns the length of s in UTF-16 code units. Characters
// outside the Basic Multilingual Plane count twice.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Levenshtein returns the unit-cost edit distance between a and b over
// UTF-16 code units.
func Levenshtein(a, b string) int {
	ra := utf16.Encode([]rune(a))
	rb := utf16.Encode([]rune(b))

	// matrix[i][j] is the distance between rb[:i] and ra[:j]
	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = min(
				matrix[i-1][j-1]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j]+1,
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}
