package s2_signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/memstore"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

func seed(t *testing.T, s *memstore.Store, ticker string, bars int, lastDay time.Time, industry string) {
	t.Helper()
	ctx := context.Background()

	closes := make([]contracts.PriceBar, bars)
	for i := range closes {
		c := 100 + float64(i)
		closes[i] = contracts.PriceBar{Date: lastDay.AddDate(0, 0, i-bars+1), Close: c, High: c}
	}
	require.NoError(t, s.InsertTickersBulk(ctx, []contracts.Ticker{{Symbol: ticker}}))
	require.NoError(t, s.InsertPriceHistory(ctx, ticker, closes))
	require.NoError(t, s.InsertIncomeStatements(ctx, ticker, contracts.PeriodQuarter,
		statements(contracts.PeriodQuarter, f(2), f(2), f(2), f(2), f(1), f(1), f(1), f(1))))
	if industry != "" {
		require.NoError(t, s.InsertCompanyProfile(ctx, &contracts.CompanyProfile{
			Ticker: ticker, Sector: "Tech", Industry: industry,
		}))
	}
}

func TestBuilder_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := memstore.New()

	seed(t, store, "LONG", 300, now, "Software")
	seed(t, store, "SHORT", 100, now, "Software")
	seed(t, store, "STALE", 300, now.AddDate(0, 0, -30), "Banks")
	seed(t, store, "NOPROF", 300, now, "")

	// stale rows from an earlier run must disappear
	require.NoError(t, store.InsertCalculatedRS(ctx, contracts.RSComponents{Ticker: "STALE", RSValue: 99}))
	require.NoError(t, store.InsertCalculatedRS(ctx, contracts.RSComponents{Ticker: "SHORT", RSValue: 99}))

	b := NewBuilder(store, logger.Nop(), Config{Workers: 3, StalePriceDays: 10}).
		WithClock(func() time.Time { return now })

	res, err := b.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Tickers)
	assert.Equal(t, 2, res.RS)
	assert.Equal(t, 4, res.EPS)
	assert.Equal(t, 4, res.SMR)
	assert.Equal(t, 1, res.Industries)
	assert.Equal(t, 3, res.IndustryRS)
	assert.Zero(t, res.Errors)

	rs, err := store.GetAllRSValues(ctx)
	require.NoError(t, err)
	assert.Contains(t, rs, "LONG")
	assert.Contains(t, rs, "NOPROF")
	assert.NotContains(t, rs, "SHORT")
	assert.NotContains(t, rs, "STALE")

	ind, err := store.GetAllIndustryGroupRS(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 99, ind["LONG"].Value, 1e-9)
	assert.InDelta(t, 99, ind["SHORT"].Value, 1e-9)
	assert.Zero(t, ind["STALE"].Value)
}

func TestBuilder_RunEmpty(t *testing.T) {
	b := NewBuilder(memstore.New(), logger.Nop(), DefaultConfig())
	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Tickers)
}
