package s1_universe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/memstore"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

type staticListing struct {
	tickers []contracts.Ticker
	err     error
}

func (s staticListing) ListTickers(ctx context.Context) ([]contracts.Ticker, error) {
	return s.tickers, s.err
}

func TestBuilder_Build(t *testing.T) {
	listing := staticListing{tickers: []contracts.Ticker{
		{Symbol: "msft", Exchange: "NASDAQ", Name: "Microsoft"},
		{Symbol: "AAPL", Exchange: "NASDAQ", Name: "Apple"},
		{Symbol: "AAPL", Exchange: "NASDAQ", Name: "Apple"},
		{Symbol: "IBM", Exchange: "NYSE", Name: "IBM"},
		{Symbol: "SHOP", Exchange: "TSX", Name: "Shopify"},
		{Symbol: "ACAHW-WS", Exchange: "NYSE", Name: "Warrant"},
		{Symbol: "SPCX", Exchange: "NASDAQ", Name: "Example Acquisition Corp"},
	}}

	t.Run("full dataset", func(t *testing.T) {
		b := NewBuilder(listing, memstore.New(), logger.Nop(), DefaultConfig())
		u, err := b.Build(context.Background(), true)
		require.NoError(t, err)

		assert.Equal(t, []string{"AAPL", "IBM", "MSFT", "SPCX"}, u.Symbols())
		assert.Equal(t, 7, u.Listed)
		assert.Contains(t, u.Excluded, "SHOP")
		assert.Equal(t, "derivative symbol", u.Excluded["ACAHW-WS"])
		assert.False(t, u.Sampled)
	})

	t.Run("exclude SPAC", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ExcludeSPAC = true
		b := NewBuilder(listing, memstore.New(), logger.Nop(), cfg)
		u, err := b.Build(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, "SPAC", u.Excluded["SPCX"])
	})

	t.Run("sample keeps first symbols", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SampleSize = 2
		b := NewBuilder(listing, memstore.New(), logger.Nop(), cfg)
		u, err := b.Build(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "IBM"}, u.Symbols())
		assert.True(t, u.Sampled)
	})

	t.Run("listing error", func(t *testing.T) {
		b := NewBuilder(staticListing{err: errors.New("down")}, memstore.New(), logger.Nop(), DefaultConfig())
		_, err := b.Build(context.Background(), true)
		assert.Error(t, err)
	})
}

func TestBuilder_Track(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	b := NewBuilder(staticListing{}, store, logger.Nop(), DefaultConfig())

	u := &Universe{Tickers: []contracts.Ticker{
		{Symbol: "AAPL", Exchange: "NASDAQ", Name: "Apple"},
		{Symbol: "IBM", Exchange: "NYSE"},
	}}
	require.NoError(t, b.TrackBenchmarks(ctx, []string{"SPY", "QQQ"}))
	require.NoError(t, b.Track(ctx, u, []string{"IBM", "AAPL"}))

	got, err := store.GetAllTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "IBM"}, got)
}

func TestBuilder_checkExclusion(t *testing.T) {
	builder := &Builder{config: Config{
		Exchanges:          []string{"NASDAQ", "NYSE"},
		ExcludeSPAC:        true,
		ExcludeDerivatives: true,
	}}

	tests := []struct {
		name   string
		ticker contracts.Ticker
		want   string
	}{
		{"valid", contracts.Ticker{Symbol: "NVDA", Exchange: "NASDAQ", Name: "NVIDIA"}, ""},
		{"unknown exchange passes", contracts.Ticker{Symbol: "NVDA"}, ""},
		{"lower-case exchange", contracts.Ticker{Symbol: "KO", Exchange: "nyse"}, ""},
		{"empty symbol", contracts.Ticker{}, "empty symbol"},
		{"other exchange", contracts.Ticker{Symbol: "RY", Exchange: "TSX"}, "exchange TSX"},
		{"units", contracts.Ticker{Symbol: "ABCD-U", Exchange: "NYSE"}, "derivative symbol"},
		{"index", contracts.Ticker{Symbol: "^GSPC", Exchange: "NYSE"}, "derivative symbol"},
		{"class share dot", contracts.Ticker{Symbol: "BRK.B", Exchange: "NYSE"}, "derivative symbol"},
		{"spac", contracts.Ticker{Symbol: "XYZ", Exchange: "NASDAQ", Name: "XYZ Acquisition Corp II"}, "SPAC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, builder.checkExclusion(tt.ticker), fmt.Sprint(tt.ticker))
		})
	}
}
