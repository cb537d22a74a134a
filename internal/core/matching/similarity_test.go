package matching

import "testing"

func TestMatchRate(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "Hello world", "Hello world", 100},
		{"both empty", "", "", 100},
		{"case only", "Hello", "hello", 100},
		{"one edit over twelve", "Hello world", "Hello World!", 92},
		{"one empty", "abc", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"half", "abcd", "abxy", 50},
		{"multibyte", "저장하기", "저장하기.", 80},
		{"astral plane counts two units", "a😀", "b😀", 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchRate(tt.a, tt.b); got != tt.want {
				t.Errorf("MatchRate(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatchRate_Properties(t *testing.T) {
	inputs := []string{
		"", "a", "A.", "Save file", "save FILE", "Pay $5 now.",
		"The quick brown fox", "The quick brown fix.", "日本語のテキスト", "abc abc abc",
	}

	for _, a := range inputs {
		if got := MatchRate(a, a); got != 100 {
			t.Errorf("MatchRate(%q, %q) = %d, want 100", a, a, got)
		}
		for _, b := range inputs {
			ab := MatchRate(a, b)
			ba := MatchRate(b, a)
			if ab != ba {
				t.Errorf("asymmetric: MatchRate(%q, %q) = %d, reverse = %d", a, b, ab, ba)
			}
			if ab < 0 || ab > 100 {
				t.Errorf("MatchRate(%q, %q) = %d out of range", a, b, ab)
			}
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"한국어", "한국", 1},
		{"😀", "😁", 1},
		{"😀", "", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTextLength(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"저장", 2},
		{"a😀", 3},
	}
	for _, tt := range tests {
		if got := TextLength(tt.s); got != tt.want {
			t.Errorf("TextLength(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}
