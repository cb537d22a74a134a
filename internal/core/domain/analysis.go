package domain

import "math"

// MatchTier is a band of match rates billed at a fraction of the word rate
type MatchTier struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	// Rate is the billed percentage of the full word rate
	Rate int `json:"rate"`
}

// MatchTiers are checked in order; the first containing tier wins
var MatchTiers = []MatchTier{
	{Name: "101%", Label: "Context Match", Min: 101, Max: 101, Rate: 0},
	{Name: "100%", Label: "Exact Match", Min: 100, Max: 100, Rate: 10},
	{Name: "95-99%", Label: "High Fuzzy", Min: 95, Max: 99, Rate: 25},
	{Name: "85-94%", Label: "Medium Fuzzy", Min: 85, Max: 94, Rate: 50},
	{Name: "75-84%", Label: "Low Fuzzy", Min: 75, Max: 84, Rate: 75},
	{Name: "New", Label: "No Match", Min: 0, Max: 74, Rate: 100},
}

// MatchTierResult aggregates the segments falling into a tier
type MatchTierResult struct {
	MatchTier
	Segments int     `json:"segments"`
	Words    int     `json:"words"`
	Cost     float64 `json:"cost"`
}

// AnalysisData is a fuzzy-match cost breakdown of a document
type AnalysisData struct {
	Tiers          []MatchTierResult `json:"tiers"`
	TotalSegments  int               `json:"total_segments"`
	TotalWords     int               `json:"total_words"`
	TotalCost      float64           `json:"total_cost"`
	FullCost       float64           `json:"full_cost"`
	Savings        float64           `json:"savings"`
	SavingsPercent int               `json:"savings_percent"`
}

// Analyze bins segments by their load-time match rate and prices them.
// Returns nil for an empty document.
func Analyze(segments []Segment, wordRate float64) *AnalysisData {
	if len(segments) == 0 {
		return nil
	}

	tiers := make([]MatchTierResult, len(MatchTiers))
	for i, tier := range MatchTiers {
		tiers[i] = MatchTierResult{MatchTier: tier}
	}

	totalWords := 0
	for _, seg := range segments {
		words := CountWords(seg.Source)
		totalWords += words

		for i := range tiers {
			if seg.MatchRate >= tiers[i].Min && seg.MatchRate <= tiers[i].Max {
				tiers[i].Segments++
				tiers[i].Words += words
				tiers[i].Cost += float64(words) * (float64(tiers[i].Rate) / 100) * wordRate
				break
			}
		}
	}

	var totalCost float64
	for _, tier := range tiers {
		totalCost += tier.Cost
	}
	fullCost := float64(totalWords) * wordRate
	savings := fullCost - totalCost
	savingsPercent := 0
	if fullCost > 0 {
		savingsPercent = roundHalfUp(savings / fullCost * 100)
	}

	return &AnalysisData{
		Tiers:          tiers,
		TotalSegments:  len(segments),
		TotalWords:     totalWords,
		TotalCost:      totalCost,
		FullCost:       fullCost,
		Savings:        savings,
		SavingsPercent: savingsPercent,
	}
}

// roundHalfUp rounds half values toward positive infinity
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
