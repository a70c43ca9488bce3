package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/httputil"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	log := logger.Nop()
	return NewClient(httputil.New(log, 5*time.Second), log, server.URL, "test-key", []string{"NASDAQ", "NYSE"})
}

func TestPriceHistory(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/historical-price-full/AAPL": `{"symbol":"AAPL","historical":[
			{"date":"2024-01-04","open":3,"high":4,"low":2,"close":3.5,"volume":300},
			{"date":"2024-01-03","open":2,"high":3,"low":1,"close":2.5,"volume":200},
			{"date":"2024-01-02","open":1,"high":2,"low":1,"close":1.5,"volume":100.0}
		]}`,
	})

	bars, err := c.PriceHistory(context.Background(), "AAPL", 300)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.InDelta(t, 3.5, bars[2].Close, 1e-9)
	assert.Equal(t, int64(100), bars[0].Volume)
}

func TestPriceHistory_NotFound(t *testing.T) {
	c := newTestClient(t, map[string]string{})

	_, err := c.PriceHistory(context.Background(), "NOPE", 300)
	var statusErr *httputil.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestParseHistorical(t *testing.T) {
	tests := []struct {
		name    string
		entries []historicalEntry
		want    int
	}{
		{name: "empty", entries: nil, want: 0},
		{
			name: "bad date and zero close dropped",
			entries: []historicalEntry{
				{Date: "2024-01-02", Close: 10},
				{Date: "01/03/2024", Close: 11},
				{Date: "2024-01-04", Close: 0},
			},
			want: 1,
		},
		{
			name: "duplicate dates collapse",
			entries: []historicalEntry{
				{Date: "2024-01-02", Close: 10},
				{Date: "2024-01-02", Close: 10},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, parseHistorical(tt.entries), tt.want)
		})
	}
}

func TestIncomeStatements(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/income-statement/MSFT": `[
			{"date":"2023-09-30","period":"Q1","revenue":100,"netIncome":20,"eps":1.5,"epsdiluted":1.4},
			{"date":"2023-12-31","period":"Q2","revenue":120,"netIncome":null,"eps":1.7,"epsdiluted":1.6}
		]`,
	})

	stmts, err := c.IncomeStatements(context.Background(), "MSFT", contracts.PeriodQuarter, 8)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	// newest first regardless of wire order
	assert.Equal(t, 2023, stmts[0].FiscalDate.Year())
	assert.Equal(t, time.December, stmts[0].FiscalDate.Month())
	assert.Nil(t, stmts[0].NetIncome)
	require.NotNil(t, stmts[0].EPS)
	assert.InDelta(t, 1.7, *stmts[0].EPS, 1e-9)
	assert.Equal(t, contracts.PeriodQuarter, stmts[1].Period)
}

func TestBalanceSheets_EquityFallback(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/balance-sheet-statement/MSFT": `[
			{"date":"2023-06-30","totalStockholdersEquity":500,"totalEquity":510},
			{"date":"2022-06-30","totalEquity":400}
		]`,
	})

	sheets, err := c.BalanceSheets(context.Background(), "MSFT", contracts.PeriodAnnual, 5)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.InDelta(t, 500, *sheets[0].TotalEquity, 1e-9)
	assert.InDelta(t, 400, *sheets[1].TotalEquity, 1e-9)
}

func TestCompanyProfile(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/profile/NVDA":  `[{"symbol":"NVDA","companyName":"NVIDIA","sector":"Technology","industry":"Semiconductors","mktCap":1.2e12,"country":"US","exchangeShortName":"NASDAQ"}]`,
		"/profile/EMPTY": `[]`,
	})

	p, err := c.CompanyProfile(context.Background(), "NVDA")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Semiconductors", p.Industry)
	assert.True(t, p.Complete())

	p, err = c.CompanyProfile(context.Background(), "EMPTY")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestParseSectorRows(t *testing.T) {
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`[
		{"date":"2024-01-03","technologyChangesPercentage":1.25,"energyChangesPercentage":"-0.5","utilitiesChangesPercentage":null},
		{"date":"2024-01-03","technologyChangesPercentage":9.99},
		{"date":"bad","energyChangesPercentage":1}
	]`), &raw))

	rows := parseSectorRows(raw)
	require.Len(t, rows, 2)
	assert.Equal(t, "energy", rows[0].Sector)
	assert.InDelta(t, -0.5, rows[0].ChangePercentage, 1e-9)
	assert.Equal(t, "technology", rows[1].Sector)
	assert.InDelta(t, 1.25, rows[1].ChangePercentage, 1e-9)
}

func TestListTickers(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/stock/list": `[
			{"symbol":"MSFT","name":"Microsoft","exchangeShortName":"NASDAQ","type":"stock"},
			{"symbol":"SPY","name":"SPDR","exchangeShortName":"AMEX","type":"etf"},
			{"symbol":"BMW.DE","name":"BMW","exchangeShortName":"XETRA","type":"stock"},
			{"symbol":"IBM","name":"IBM","exchangeShortName":"NYSE","type":"stock"}
		]`,
	})

	tickers, err := c.ListTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.Equal(t, "IBM", tickers[0].Symbol)
	assert.Equal(t, "MSFT", tickers[1].Symbol)
}
