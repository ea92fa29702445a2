package synthesis

import "github.com/livingsystems/orient/internal/domain"

// patternThreshold is the mean below which a category is flagged.
const patternThreshold = 5.0

// CategoryAverage is one flagged life wheel category and its window mean.
type CategoryAverage struct {
	Category string
	Avg      float64
}

// LowAverages computes the per-category mean over the given score entries
// and returns the categories averaging strictly below the threshold, most
// concerning first (ascending mean, category name as tiebreak). Every entry
// counts — duplicate (date, phase) submissions are averaged over, not
// deduplicated.
func LowAverages(entries []*domain.ScoreEntry) []CategoryAverage {
	totals := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range entries {
		for cat, score := range e.Scores {
			totals[cat] += score
			counts[cat]++
		}
	}

	var low []CategoryAverage
	for _, cat := range domain.LifeWheelCategories {
		n := counts[cat]
		if n == 0 {
			continue
		}
		avg := float64(totals[cat]) / float64(n)
		if avg < patternThreshold {
			low = append(low, CategoryAverage{Category: cat, Avg: avg})
		}
	}

	// Insertion sort keeps the fixed-category iteration order as the
	// deterministic tiebreak for equal means.
	for i := 1; i < len(low); i++ {
		for j := i; j > 0 && low[j].Avg < low[j-1].Avg; j-- {
			low[j], low[j-1] = low[j-1], low[j]
		}
	}
	return low
}
