package selection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/ratingconfig"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// Store is what the ranking pass reads and writes
type Store interface {
	GetAllTickers(ctx context.Context) ([]string, error)
	contracts.ComponentReader
	contracts.RatingStore
}

// Ranker implements S4: whole-universe percentile ranking and composite score
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	store  Store
	config *ratingconfig.Config
	logger *logger.Logger
	now    func() time.Time
}

// NewRanker creates a new ranker. A nil config uses ratingconfig.Default().
func NewRanker(store Store, cfg *ratingconfig.Config, log *logger.Logger) *Ranker {
	if cfg == nil {
		cfg = ratingconfig.Default()
	}
	return &Ranker{
		store:  store,
		config: cfg,
		logger: log.WithField("module", "ranking"),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for the 52-week window
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// Run rates every tracked ticker in a single pass. Any read or write failure
// aborts the pass.
func (r *Ranker) Run(ctx context.Context) (*contracts.RankingResult, error) {
	tickers, err := r.store.GetAllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}

	result := &contracts.RankingResult{}
	if len(tickers) == 0 {
		r.logger.Warn("No tracked tickers, skipping ranking")
		return result, nil
	}

	rsRows, err := r.store.GetAllRSValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("get rs values: %w", err)
	}
	epsRows, err := r.store.GetAllEPSComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get eps components: %w", err)
	}
	smrRows, err := r.store.GetAllSMRComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get smr components: %w", err)
	}
	industryRows, err := r.store.GetAllIndustryGroupRS(ctx)
	if err != nil {
		return nil, fmt.Errorf("get industry group rs: %w", err)
	}

	tracked := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		tracked[t] = true
	}

	// 1. RS / EPS 랭크 (1~99)
	rsValues := make(map[string]float64, len(rsRows))
	for t, rs := range rsRows {
		if tracked[t] {
			rsValues[t] = rs.RSValue
		}
	}
	rsRanks := RankValues(rsValues)

	epsValues := make(map[string]float64, len(epsRows))
	for t, eps := range epsRows {
		if tracked[t] && !eps.AllNull() {
			epsValues[t] = BlendEPS(eps, r.config.EPS)
		}
	}
	epsRanks := RankValues(epsValues)

	// 2. SMR 백분위 (0~99)
	smrTracked := make(map[string]contracts.SMRComponents, len(smrRows))
	for t, smr := range smrRows {
		if tracked[t] {
			smrTracked[t] = smr
		}
	}
	smrPct := SMRPercentiles(smrTracked, r.config.SMR)

	// 3. 종합 점수
	ratings := make([]contracts.CompositeRating, 0, len(tickers))
	for _, t := range tickers {
		ratings = append(ratings, r.rate(t, rsRanks, epsRanks, smrPct, industryRows))
	}

	if err := r.store.InsertRatings(ctx, ratings); err != nil {
		return nil, fmt.Errorf("insert ratings: %w", err)
	}
	pruned, err := r.store.PruneRatings(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("prune ratings: %w", err)
	}

	highs, err := r.updateHighs(ctx, tracked)
	if err != nil {
		return nil, err
	}

	result.Rated = len(ratings)
	result.RSRated = len(rsRanks)
	result.EPSRated = len(epsRanks)
	result.SMRRated = len(smrPct)
	result.Pruned = pruned
	result.HighsSet = highs

	r.logger.WithFields(map[string]interface{}{
		"rated":     result.Rated,
		"rs_rated":  result.RSRated,
		"eps_rated": result.EPSRated,
		"smr_rated": result.SMRRated,
		"pruned":    result.Pruned,
		"highs_set": result.HighsSet,
	}).Info("Ranking completed")

	return result, nil
}

// rate assembles one ticker's rating row from the universe-wide maps
func (r *Ranker) rate(
	ticker string,
	rsRanks, epsRanks, smrPct map[string]int,
	industries map[string]contracts.IndustryGroupRS,
) contracts.CompositeRating {
	rating := contracts.CompositeRating{Ticker: ticker}

	var rs, eps, smr, industry float64
	adScore := r.config.AD.DefaultScore

	if v, ok := rsRanks[ticker]; ok {
		rating.RSRating = contracts.Int(v)
		rs = float64(v)
		rating.ADRating = r.config.AD.Thresholds.Letter(rs)
		adScore = r.config.AD.Scores.Score(rating.ADRating)
	}
	if v, ok := epsRanks[ticker]; ok {
		rating.EPSRating = contracts.Int(v)
		eps = float64(v)
	}
	if v, ok := smrPct[ticker]; ok {
		rating.SMRPercentile = contracts.Int(v)
		rating.SMRRating = r.config.SMR.Thresholds.Letter(float64(v))
		smr = float64(v)
	}
	if ig, ok := industries[ticker]; ok {
		rating.IndustryGroupRS = contracts.Float(ig.Value)
		industry = ig.Value
	}

	rating.CompRating = CompositeScore(r.config.Composite, eps, rs, smr, adScore, industry)
	return rating
}

// updateHighs refreshes price_vs_52w_high for tracked tickers with bars in
// the window. Others keep their stored value.
func (r *Ranker) updateHighs(ctx context.Context, tracked map[string]bool) (int, error) {
	since := r.now().AddDate(0, 0, -r.config.High52W.WindowDays)
	highs, err := r.store.GetPriceHighs(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("get price highs: %w", err)
	}

	values := make(map[string]float64, len(highs))
	for t, h := range highs {
		if !tracked[t] || h.High <= 0 {
			continue
		}
		values[t] = (h.LatestClose - h.High) / h.High * 100
	}

	if err := r.store.UpdatePriceVs52WeekHigh(ctx, values); err != nil {
		return 0, fmt.Errorf("update 52w high: %w", err)
	}
	return len(values), nil
}

// RankValues maps values to 1~99 ranks, ascending, ties broken by ticker
func RankValues(values map[string]float64) map[string]int {
	keys := sortedByValue(values)
	n := len(keys)
	ranks := make(map[string]int, n)
	for i, t := range keys {
		ranks[t] = 1 + int(math.Floor(float64(i)/float64(n)*98))
	}
	return ranks
}

// BlendEPS is the EPS ranking metric. Null parts count as 0.
func BlendEPS(e contracts.EPSComponents, w ratingconfig.EPSBlend) float64 {
	return w.LastQuarter*capped(e.EPSGrowthLastQtr, w.GrowthCap) +
		w.PrevQuarter*capped(e.EPSGrowthPrevQtr, w.GrowthCap) +
		w.Annual*capped(e.AnnualGrowthRate, w.AnnualCap) +
		w.Stability*valueOr0(e.StabilityScore)
}

// SMRPercentiles returns the 0~99 SMR percentile of each row
func SMRPercentiles(rows map[string]contracts.SMRComponents, w ratingconfig.SMRBlend) map[string]int {
	if len(rows) == 0 {
		return map[string]int{}
	}

	sales := domainPercentiles(rows, func(c contracts.SMRComponents) *float64 { return c.AvgSalesGrowth3Q })
	margin := domainPercentiles(rows, func(c contracts.SMRComponents) *float64 { return c.PretaxMarginAnnual })
	roe := domainPercentiles(rows, func(c contracts.SMRComponents) *float64 { return c.ROEAnnual })

	weighted := make(map[string]float64, len(rows))
	for t := range rows {
		weighted[t] = w.Sales*sales[t] + w.Margin*margin[t] + w.ROE*roe[t]
	}

	keys := sortedByValue(weighted)
	n := len(keys)
	out := make(map[string]int, n)
	for i, t := range keys {
		out[t] = int(math.Floor(float64(i) / float64(n) * 100))
	}
	return out
}

// CompositeScore is the rounded weighted sum of the five sub-scores
func CompositeScore(w ratingconfig.CompositeWeights, eps, rs, smr, ad, industry float64) int {
	return int(math.Round(w.EPS*eps + w.RS*rs + w.SMR*smr + w.AD*ad + w.Industry*industry))
}

// domainPercentiles ranks one SMR domain ascending. Null values sort below
// every real value.
func domainPercentiles(rows map[string]contracts.SMRComponents, get func(contracts.SMRComponents) *float64) map[string]float64 {
	keys := make([]string, 0, len(rows))
	for t := range rows {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := get(rows[keys[i]]), get(rows[keys[j]])
		switch {
		case a == nil && b == nil:
			return keys[i] < keys[j]
		case a == nil:
			return true
		case b == nil:
			return false
		case *a != *b:
			return *a < *b
		}
		return keys[i] < keys[j]
	})

	n := float64(len(keys))
	out := make(map[string]float64, len(keys))
	for i, t := range keys {
		out[t] = float64(i) / n * 100
	}
	return out
}

func sortedByValue(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for t := range values {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := values[keys[i]], values[keys[j]]
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func capped(v *float64, limit float64) float64 {
	if v == nil {
		return 0
	}
	return math.Min(*v, limit)
}

func valueOr0(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
