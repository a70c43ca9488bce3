package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/ratingconfig"
	"github.com/wonny/aegis-ratings/internal/s0_data/memstore"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

func f(v float64) *float64 { return &v }

func TestRankValues(t *testing.T) {
	t.Run("ties broken by ticker", func(t *testing.T) {
		ranks := RankValues(map[string]float64{"B": 1, "A": 1, "C": 2})
		assert.Equal(t, map[string]int{"A": 1, "B": 33, "C": 66}, ranks)
	})

	t.Run("bounds", func(t *testing.T) {
		for _, n := range []int{1, 2, 7, 100, 1000} {
			values := make(map[string]float64, n)
			for i := 0; i < n; i++ {
				values[fmt.Sprintf("T%04d", i)] = float64(i % 13)
			}
			for ticker, rank := range RankValues(values) {
				assert.GreaterOrEqual(t, rank, 1, "n=%d %s", n, ticker)
				assert.LessOrEqual(t, rank, 99, "n=%d %s", n, ticker)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, RankValues(nil))
	})
}

func TestCompositeScore(t *testing.T) {
	w := ratingconfig.Default().Composite

	tests := []struct {
		name                       string
		eps, rs, smr, ad, industry float64
		want                       int
	}{
		{"mid sub-scores", 50, 50, 50, 60, 50, 51},
		{"all missing", 0, 0, 0, 60, 0, 6},
		{"top", 99, 99, 99, 95, 99, 99},
		{"rounds to nearest", 1, 1, 50, 20, 0, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompositeScore(w, tt.eps, tt.rs, tt.smr, tt.ad, tt.industry))
		})
	}
}

func TestBlendEPS(t *testing.T) {
	w := ratingconfig.Default().EPS

	got := BlendEPS(contracts.EPSComponents{
		EPSGrowthLastQtr: f(600), // 500 상한
		AnnualGrowthRate: f(150), // 100 상한
		StabilityScore:   f(50),
	}, w)
	assert.InDelta(t, 0.4*500+0.2*100+0.2*50, got, 1e-9)

	assert.Zero(t, BlendEPS(contracts.EPSComponents{}, w))
}

func TestSMRPercentiles(t *testing.T) {
	row := func(v *float64) contracts.SMRComponents {
		return contracts.SMRComponents{AvgSalesGrowth3Q: v, PretaxMarginAnnual: v, ROEAnnual: v}
	}
	rows := map[string]contracts.SMRComponents{
		"A": row(f(10)),
		"B": row(f(20)),
		"C": row(nil), // null은 최하위
		"D": row(f(30)),
	}

	pct := SMRPercentiles(rows, ratingconfig.Default().SMR)
	assert.Equal(t, map[string]int{"C": 0, "A": 25, "B": 50, "D": 75}, pct)

	th := ratingconfig.Default().SMR.Thresholds
	assert.Equal(t, "E", th.Letter(float64(pct["C"])))
	assert.Equal(t, "D", th.Letter(float64(pct["A"])))
	assert.Equal(t, "C", th.Letter(float64(pct["B"])))
	assert.Equal(t, "B", th.Letter(float64(pct["D"])))

	t.Run("bounds", func(t *testing.T) {
		big := make(map[string]contracts.SMRComponents)
		for i := 0; i < 250; i++ {
			big[fmt.Sprintf("T%03d", i)] = contracts.SMRComponents{
				AvgSalesGrowth3Q:   f(float64(i % 7)),
				PretaxMarginAnnual: f(float64(i % 11)),
			}
		}
		for _, p := range SMRPercentiles(big, ratingconfig.Default().SMR) {
			assert.GreaterOrEqual(t, p, 0)
			assert.Less(t, p, 100)
		}
	})
}

func seedRanking(t *testing.T, now time.Time) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New().WithClock(func() time.Time { return now })

	require.NoError(t, s.InsertTickersBulk(ctx, []contracts.Ticker{
		{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}, {Symbol: "D"},
	}))

	for ticker, v := range map[string]float64{"A": 3, "B": 1, "C": 2, "GONE": 50} {
		require.NoError(t, s.InsertCalculatedRS(ctx, contracts.RSComponents{Ticker: ticker, RSValue: v}))
	}
	require.NoError(t, s.InsertCalculatedEPS(ctx, contracts.EPSComponents{Ticker: "A"}))
	require.NoError(t, s.InsertCalculatedEPS(ctx, contracts.EPSComponents{Ticker: "B", EPSGrowthLastQtr: f(10)}))
	require.NoError(t, s.InsertCalculatedEPS(ctx, contracts.EPSComponents{Ticker: "C", EPSGrowthLastQtr: f(20)}))
	require.NoError(t, s.InsertCalculatedSMR(ctx, contracts.SMRComponents{
		Ticker: "A", AvgSalesGrowth3Q: f(10), PretaxMarginAnnual: f(10), ROEAnnual: f(10),
	}))
	require.NoError(t, s.InsertCalculatedSMR(ctx, contracts.SMRComponents{
		Ticker: "B", AvgSalesGrowth3Q: f(20), PretaxMarginAnnual: f(20), ROEAnnual: f(20),
	}))
	require.NoError(t, s.ReplaceIndustryGroupRS(ctx, []contracts.IndustryGroupRS{
		{Ticker: "A", Sector: "Tech", Industry: "Software", Value: 80},
	}))

	// A: 윈도우 안 고가 200, 최신 종가 150
	require.NoError(t, s.InsertPriceHistory(ctx, "A", []contracts.PriceBar{
		{Date: now.AddDate(0, 0, -30), Close: 190, High: 200},
		{Date: now.AddDate(0, 0, -1), Close: 150, High: 155},
	}))
	// B: 윈도우 밖 데이터만 존재
	require.NoError(t, s.InsertPriceHistory(ctx, "B", []contracts.PriceBar{
		{Date: now.AddDate(-2, 0, 0), Close: 10, High: 12},
	}))

	// 이전 실행 결과
	require.NoError(t, s.InsertRatings(ctx, []contracts.CompositeRating{
		{Ticker: "B", CompRating: 90}, {Ticker: "GONE", CompRating: 99},
	}))
	require.NoError(t, s.UpdatePriceVs52WeekHigh(ctx, map[string]float64{"B": -10}))

	return s
}

func TestRanker_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := seedRanking(t, now)

	r := NewRanker(store, nil, logger.Nop()).WithClock(func() time.Time { return now })
	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, &contracts.RankingResult{
		Rated: 4, RSRated: 3, EPSRated: 2, SMRRated: 2, Pruned: 1, HighsSet: 1,
	}, res)

	get := func(ticker string) *contracts.CompositeRating {
		rating, err := store.GetRating(ctx, ticker)
		require.NoError(t, err)
		return rating
	}

	a := get("A")
	assert.Equal(t, 66, *a.RSRating)
	assert.Nil(t, a.EPSRating, "all-null EPS is unranked")
	assert.Equal(t, "C", a.ADRating)
	assert.Equal(t, 0, *a.SMRPercentile)
	assert.Equal(t, "E", a.SMRRating)
	assert.InDelta(t, 80, *a.IndustryGroupRS, 1e-9)
	assert.Equal(t, 34, a.CompRating)
	require.NotNil(t, a.PriceVs52WeekHigh)
	assert.InDelta(t, -25, *a.PriceVs52WeekHigh, 1e-9)

	b := get("B")
	assert.Equal(t, 1, *b.RSRating)
	assert.Equal(t, 1, *b.EPSRating)
	assert.Equal(t, "E", b.ADRating)
	assert.Equal(t, 50, *b.SMRPercentile)
	assert.Equal(t, "C", b.SMRRating)
	assert.Nil(t, b.IndustryGroupRS)
	assert.Equal(t, 13, b.CompRating)
	require.NotNil(t, b.PriceVs52WeekHigh, "no bars in window keeps the prior value")
	assert.InDelta(t, -10, *b.PriceVs52WeekHigh, 1e-9)

	c := get("C")
	assert.Equal(t, 33, *c.RSRating)
	assert.Equal(t, 50, *c.EPSRating)
	assert.Equal(t, "D", c.ADRating)
	assert.Nil(t, c.SMRPercentile)
	assert.Equal(t, 29, c.CompRating)

	// RS 미산출 종목도 종합 점수는 받음
	d := get("D")
	assert.Nil(t, d.RSRating)
	assert.Empty(t, d.ADRating)
	assert.Equal(t, 6, d.CompRating)
	assert.Nil(t, d.PriceVs52WeekHigh)

	_, err = store.GetRating(ctx, "GONE")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	all, err := store.GetAllRatings(ctx)
	require.NoError(t, err)
	order := make([]string, len(all))
	for i, rating := range all {
		order[i] = rating.Ticker
	}
	assert.Equal(t, []string{"A", "C", "B", "D"}, order)
}

func TestRanker_RunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := seedRanking(t, now)
	r := NewRanker(store, nil, logger.Nop()).WithClock(func() time.Time { return now })

	_, err := r.Run(ctx)
	require.NoError(t, err)
	first, _ := store.GetAllRatings(ctx)

	res, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Pruned)

	second, _ := store.GetAllRatings(ctx)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Ticker, second[i].Ticker)
		assert.Equal(t, first[i].CompRating, second[i].CompRating)
	}
}

func TestRanker_EmptyUniverse(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.InsertRatings(ctx, []contracts.CompositeRating{{Ticker: "OLD", CompRating: 70}}))

	res, err := NewRanker(store, nil, logger.Nop()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &contracts.RankingResult{}, res)

	// 빈 유니버스는 기존 결과를 건드리지 않음
	_, err = store.GetRating(ctx, "OLD")
	assert.NoError(t, err)
}

// failingStore breaks one full-map read
type failingStore struct {
	*memstore.Store
}

func (failingStore) GetAllEPSComponents(context.Context) (map[string]contracts.EPSComponents, error) {
	return nil, errors.New("connection reset")
}

func TestRanker_ReadFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := seedRanking(t, now)

	_, err := NewRanker(failingStore{store}, nil, logger.Nop()).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get eps components")

	// 아무것도 쓰지 않음
	_, err = store.GetRating(ctx, "A")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestRanker_CustomWeights(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := seedRanking(t, now)

	cfg := ratingconfig.Default()
	cfg.Composite = ratingconfig.CompositeWeights{RS: 1}

	_, err := NewRanker(store, cfg, logger.Nop()).WithClock(func() time.Time { return now }).Run(ctx)
	require.NoError(t, err)

	a, err := store.GetRating(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, *a.RSRating, a.CompRating)
}
