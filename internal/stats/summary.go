package stats

import (
	"math"

	"gridwalk/internal/walker"
)

// IndexSummary aggregates indexed runs.
type IndexSummary struct {
	Runs        int     `json:"runs"`
	Reached     int     `json:"reached"`
	SuccessRate float64 `json:"success_rate"`
	// MeanExcess is the mean number of steps a successful walk took beyond
	// the Manhattan distance.
	MeanExcess float64 `json:"mean_excess"`
	StdExcess  float64 `json:"std_excess"`
	Optimal    int     `json:"optimal"`
}

func SummarizeIndex(entries []RunIndexEntry) IndexSummary {
	summary := IndexSummary{Runs: len(entries)}
	var excess []float64
	for _, e := range entries {
		if e.Outcome != string(walker.OutcomeReached) {
			continue
		}
		summary.Reached++
		diff := float64(e.WalkSteps - e.Manhattan)
		if diff == 0 {
			summary.Optimal++
		}
		excess = append(excess, diff)
	}
	if summary.Runs > 0 {
		summary.SuccessRate = float64(summary.Reached) / float64(summary.Runs)
	}
	if len(excess) == 0 {
		return summary
	}

	sum := 0.0
	for _, v := range excess {
		sum += v
	}
	mean := sum / float64(len(excess))
	variance := 0.0
	for _, v := range excess {
		variance += (v - mean) * (v - mean)
	}
	summary.MeanExcess = mean
	summary.StdExcess = math.Sqrt(variance / float64(len(excess)))
	return summary
}
