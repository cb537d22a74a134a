package domain

import "testing"

func TestAnalyze_Empty(t *testing.T) {
	if Analyze(nil, 500) != nil {
		t.Error("expected nil analysis for empty document")
	}
}

func TestAnalyze_TiersAndCost(t *testing.T) {
	segments := []Segment{
		{Source: "one two", MatchRate: 101},
		{Source: "one two three", MatchRate: 100},
		{Source: "one", MatchRate: 97},
		{Source: "one two three four", MatchRate: 90},
		{Source: "one two", MatchRate: 75},
		{Source: "one two three four five", MatchRate: 0},
	}

	a := Analyze(segments, 100)

	if a.TotalSegments != 6 {
		t.Errorf("expected 6 segments, got %d", a.TotalSegments)
	}
	if a.TotalWords != 17 {
		t.Errorf("expected 17 words, got %d", a.TotalWords)
	}
	// words * tier rate * 100
	wantCosts := []float64{0, 30, 25, 200, 150, 500}
	for i, tier := range a.Tiers {
		if tier.Segments != 1 {
			t.Errorf("tier %s: expected 1 segment, got %d", tier.Name, tier.Segments)
		}
		if tier.Cost != wantCosts[i] {
			t.Errorf("tier %s: expected cost %v, got %v", tier.Name, wantCosts[i], tier.Cost)
		}
	}
	if a.FullCost != 1700 {
		t.Errorf("expected full cost 1700, got %v", a.FullCost)
	}
	if a.TotalCost != 905 {
		t.Errorf("expected total cost 905, got %v", a.TotalCost)
	}
	if a.Savings != 795 {
		t.Errorf("expected savings 795, got %v", a.Savings)
	}
	// 795 / 1700 = 46.76%
	if a.SavingsPercent != 47 {
		t.Errorf("expected savings percent 47, got %d", a.SavingsPercent)
	}
}

func TestAnalyze_ZeroWords(t *testing.T) {
	a := Analyze([]Segment{{Source: "   ", MatchRate: 50}}, 500)
	if a.SavingsPercent != 0 || a.FullCost != 0 {
		t.Errorf("expected zero cost analysis, got %+v", a)
	}
}
