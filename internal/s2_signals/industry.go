package s2_signals

import (
	"sort"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// IndustryMember is one ticker's input to the industry ranking.
// Score is nil when the ticker lacks the price history for a momentum score.
type IndustryMember struct {
	Ticker   string
	Sector   string
	Industry string
	Score    *float64
}

// CalculateIndustryGroupRS ranks industries by the mean member momentum and
// assigns 99 - (rank/total)*99 to every member. Members of industries with no
// scored member get 0. Output is sorted by ticker.
// ⭐ SSOT: 업종 RS 계산은 여기서만
func CalculateIndustryGroupRS(members []IndustryMember) ([]contracts.IndustryGroupRS, int) {
	type agg struct {
		sum float64
		n   int
	}
	groups := make(map[string]*agg)
	for _, m := range members {
		if m.Industry == "" || m.Score == nil {
			continue
		}
		g, ok := groups[m.Industry]
		if !ok {
			g = &agg{}
			groups[m.Industry] = g
		}
		g.sum += *m.Score
		g.n++
	}

	type ranked struct {
		industry string
		mean     float64
	}
	order := make([]ranked, 0, len(groups))
	for ind, g := range groups {
		order = append(order, ranked{industry: ind, mean: g.sum / float64(g.n)})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].mean != order[j].mean {
			return order[i].mean > order[j].mean
		}
		return order[i].industry < order[j].industry
	})

	total := float64(len(order))
	values := make(map[string]float64, len(order))
	for i, r := range order {
		values[r.industry] = 99 - float64(i)/total*99
	}

	out := make([]contracts.IndustryGroupRS, 0, len(members))
	for _, m := range members {
		if m.Industry == "" {
			continue
		}
		out = append(out, contracts.IndustryGroupRS{
			Ticker:   m.Ticker,
			Sector:   m.Sector,
			Industry: m.Industry,
			Value:    values[m.Industry],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })

	return out, len(order)
}
