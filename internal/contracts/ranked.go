package contracts

import "time"

// CompositeRating is the final per-ticker rating row
// ⭐ SSOT: S4 랭킹 결과
type CompositeRating struct {
	Ticker            string    `json:"ticker"`
	RSRating          *int      `json:"rs_rating"`  // 1 ~ 99
	EPSRating         *int      `json:"eps_rating"` // 1 ~ 99
	ADRating          string    `json:"ad_rating"`  // A ~ E, empty when RS is unrated
	SMRRating         string    `json:"smr_rating"` // A ~ E
	SMRPercentile     *int      `json:"smr_percentile"`
	CompRating        int       `json:"comp_rating"`
	PriceVs52WeekHigh *float64  `json:"price_vs_52w_high"`
	IndustryGroupRS   *float64  `json:"industry_group_rs"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLeader reports whether the composite and RS ratings both clear min
func (r *CompositeRating) IsLeader(min int) bool {
	return r.CompRating >= min && r.RSRating != nil && *r.RSRating >= min
}

// RatingDistribution summarizes one ranking pass for the run snapshot
type RatingDistribution struct {
	Count      int            `json:"count"`
	MeanComp   float64        `json:"mean_comp"`
	MedianComp float64        `json:"median_comp"`
	Leaders    int            `json:"leaders"`
	Buckets    map[string]int `json:"buckets"` // "90-99", "80-89", ...
	Top        []string       `json:"top"`     // highest composite first
}
