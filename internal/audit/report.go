package audit

import (
	"fmt"
	"sort"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

const (
	// LeaderMin is the composite and RS floor for a leader
	LeaderMin = 80
	topN      = 10
)

// Summarize builds the rating distribution recorded in the run snapshot
func Summarize(ratings []contracts.CompositeRating) *contracts.RatingDistribution {
	dist := &contracts.RatingDistribution{
		Count:   len(ratings),
		Buckets: make(map[string]int),
		Top:     make([]string, 0, topN),
	}
	if len(ratings) == 0 {
		return dist
	}

	sorted := append([]contracts.CompositeRating(nil), ratings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CompRating != sorted[j].CompRating {
			return sorted[i].CompRating > sorted[j].CompRating
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	sum := 0
	for i := range sorted {
		r := &sorted[i]
		sum += r.CompRating
		dist.Buckets[bucket(r.CompRating)]++
		if r.IsLeader(LeaderMin) {
			dist.Leaders++
		}
		if i < topN {
			dist.Top = append(dist.Top, r.Ticker)
		}
	}
	dist.MeanComp = float64(sum) / float64(len(sorted))
	dist.MedianComp = median(sorted)

	return dist
}

// bucket groups scores by decade, "90-99" down to "0-9"
func bucket(score int) string {
	lo := (score / 10) * 10
	if lo > 90 {
		lo = 90
	}
	if lo < 0 {
		lo = 0
	}
	return fmt.Sprintf("%d-%d", lo, lo+9)
}

// median of composite scores sorted descending
func median(sorted []contracts.CompositeRating) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2].CompRating)
	}
	return float64(sorted[n/2-1].CompRating+sorted[n/2].CompRating) / 2
}
