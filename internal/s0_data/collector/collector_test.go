package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/memstore"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// fakeProvider serves synthetic data. Tickers prefixed SHORT get 10 bars,
// PANIC panics, SLOW blocks until ctx is done.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int)}
}

func (f *fakeProvider) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func bars(n int) []contracts.PriceBar {
	out := make([]contracts.PriceBar, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Close: 100, High: 101, Low: 99, Open: 100}
	}
	return out
}

func (f *fakeProvider) GetPriceHistory(ctx context.Context, ticker string, days int) []contracts.PriceBar {
	f.count("price")
	switch {
	case strings.HasPrefix(ticker, "SHORT"):
		return bars(10)
	case strings.HasPrefix(ticker, "PANIC"):
		panic("boom")
	case strings.HasPrefix(ticker, "SLOW"):
		<-ctx.Done()
		return nil
	}
	return bars(60)
}

func (f *fakeProvider) GetIncomeStatement(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) []contracts.IncomeStatement {
	f.count("income_" + string(period))
	return []contracts.IncomeStatement{{FiscalDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), EPS: contracts.Float(1)}}
}

func (f *fakeProvider) GetBalanceSheet(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) []contracts.BalanceSheet {
	f.count("balance")
	return nil
}

func (f *fakeProvider) GetCompanyProfile(ctx context.Context, ticker string) *contracts.CompanyProfile {
	f.count("profile")
	return &contracts.CompanyProfile{Sector: "Technology", Industry: "Software"}
}

func (f *fakeProvider) GetSectorPerformance(ctx context.Context, limit int) []contracts.SectorPerformance {
	return []contracts.SectorPerformance{
		{Sector: "Energy", Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), ChangePercentage: 1.2},
		{Sector: "Utilities", Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), ChangePercentage: -0.4},
	}
}

// failingSessions wraps a factory, failing writes for one ticker and
// refusing every nth OpenSession call
type failingSessions struct {
	inner      contracts.SessionFactory
	failTicker string
	refuseNth  int

	mu     sync.Mutex
	opened int
}

func (f *failingSessions) OpenSession(ctx context.Context) (contracts.CollectorSession, error) {
	f.mu.Lock()
	f.opened++
	n := f.opened
	f.mu.Unlock()
	if f.refuseNth > 0 && n%f.refuseNth == 0 {
		return nil, errors.New("pool exhausted")
	}
	s, err := f.inner.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return &failingSession{CollectorSession: s, failTicker: f.failTicker}, nil
}

type failingSession struct {
	contracts.CollectorSession
	failTicker string
}

func (s *failingSession) InsertPriceHistory(ctx context.Context, ticker string, b []contracts.PriceBar) error {
	if ticker == s.failTicker {
		return errors.New("disk full")
	}
	return s.CollectorSession.InsertPriceHistory(ctx, ticker, b)
}

func universe(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("T%03d", i)
	}
	return out
}

func TestCollect_CountsSumToUniverse(t *testing.T) {
	tickers := universe(37)
	tickers[3] = "SHORT1"
	tickers[20] = "PANIC1"
	tickers[33] = "BAD"

	tests := []struct {
		name      string
		batchSize int
		workers   int
		refuseNth int
	}{
		{"single worker", 50, 1, 0},
		{"default", 50, 3, 0},
		{"small batches", 4, 3, 0},
		{"one per batch", 1, 8, 0},
		{"more workers than batches", 10, 16, 0},
		{"refused sessions", 5, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			sessions := &failingSessions{inner: store, failTicker: "BAD", refuseNth: tt.refuseNth}
			c := NewCollector(newFakeProvider(), sessions, store, logger.Nop())

			res := c.Collect(context.Background(), tickers, Config{
				BatchSize: tt.batchSize,
				Workers:   tt.workers,
				PriceDays: 300,
			})

			assert.Equal(t, len(tickers), res.Total())
			assert.Equal(t, res.Failure, len(res.Failed))
			assert.Equal(t, 0, store.OpenSessions(), "every session closed")
			assert.LessOrEqual(t, store.MaxConcurrentSessions(), tt.workers)

			if tt.refuseNth == 0 {
				assert.Equal(t, 3, res.Failure)
				assert.Len(t, res.Collected, 34)
				assert.NotContains(t, res.Collected, "BAD")
				assert.NotContains(t, res.Collected, "SHORT1")
			}
		})
	}
}

func TestCollect_PersistsEverything(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	fp := newFakeProvider()
	c := NewCollector(fp, store, store, logger.Nop())

	res := c.Collect(ctx, []string{"AAPL", "MSFT"}, DefaultConfig())
	require.Equal(t, 2, res.Success)
	assert.Equal(t, []string{"AAPL", "MSFT"}, res.Collected)

	got, err := store.GetPriceHistory(ctx, "AAPL", 0)
	require.NoError(t, err)
	assert.Len(t, got, 60)

	q, err := store.GetIncomeStatements(ctx, "MSFT", contracts.PeriodQuarter, 8)
	require.NoError(t, err)
	assert.Len(t, q, 1)

	p, err := store.GetCompanyProfile(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", p.Ticker)
	assert.Equal(t, "Software", p.Industry)

	assert.Equal(t, 2, fp.calls["income_quarter"])
	assert.Equal(t, 2, fp.calls["income_annual"])
}

func TestCollectBenchmarks_PriceOnly(t *testing.T) {
	store := memstore.New()
	fp := newFakeProvider()
	c := NewCollector(fp, store, store, logger.Nop())

	res := c.CollectBenchmarks(context.Background(), []string{"SPY", "QQQ", "DIA"}, DefaultConfig())
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 3, fp.calls["price"])
	assert.Zero(t, fp.calls["profile"])
}

func TestCollect_BatchDeadlineFailsRemainder(t *testing.T) {
	store := memstore.New()
	c := NewCollector(newFakeProvider(), store, store, logger.Nop())

	tickers := []string{"SLOW1", "A", "B", "C"}
	res := c.Collect(context.Background(), tickers, Config{
		BatchSize:    10,
		Workers:      1,
		BatchTimeout: 20 * time.Millisecond,
	})

	assert.Equal(t, 4, res.Total())
	assert.Equal(t, 4, res.Failure)
	for _, f := range res.Failed {
		if f.Ticker != "SLOW1" {
			assert.Contains(t, f.Reason, "batch cancelled", f.Ticker)
		}
	}
}

func TestCollect_EmptyUniverse(t *testing.T) {
	store := memstore.New()
	c := NewCollector(newFakeProvider(), store, store, logger.Nop())

	res := c.Collect(context.Background(), nil, DefaultConfig())
	assert.Zero(t, res.Total())
	assert.Empty(t, res.Collected)
}

func TestCollectSectorPerformance(t *testing.T) {
	store := memstore.New()
	c := NewCollector(newFakeProvider(), store, store, logger.Nop())

	n, err := c.CollectSectorPerformance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.SectorPerformanceCount())
}

func TestSplit(t *testing.T) {
	tests := []struct {
		n, size int
		want    int
	}{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{101, 50, 3},
	}
	for _, tt := range tests {
		got := split(universe(tt.n), tt.size)
		assert.Len(t, got, tt.want, "n=%d size=%d", tt.n, tt.size)
	}
}
