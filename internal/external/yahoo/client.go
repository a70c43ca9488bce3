package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// Client is the Yahoo Finance fallback for price history and profiles
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *logger.Logger
	now     func() time.Time
}

// NewClient creates a client paced at ratePerSec requests per second
func NewClient(log *logger.Logger, baseURL string, ratePerSec float64, timeout time.Duration) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; aegis-ratings/1.0)").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	rc.JSONUnmarshal = json.Unmarshal
	rc.JSONMarshal = json.Marshal

	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:  log.WithField("module", "yahoo"),
		now:     time.Now,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("yahoo limiter: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		return fmt.Errorf("yahoo %s: %w", path, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("yahoo %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}

// PriceHistory fetches daily bars covering roughly the last days trading days.
// Calendar span is padded so weekends and holidays still yield enough bars.
func (c *Client) PriceHistory(ctx context.Context, ticker string, days int) ([]contracts.PriceBar, error) {
	end := c.now()
	start := end.AddDate(0, 0, -(days*7/5 + 10))

	var resp chartResponse
	err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), map[string]string{
		"period1":  fmt.Sprintf("%d", start.Unix()),
		"period2":  fmt.Sprintf("%d", end.Unix()),
		"interval": "1d",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	bars := parseCandles(resp.Chart.Result[0])
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// parseCandles converts chart arrays to bars, skipping rows without a close
func parseCandles(result chartResult) []contracts.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]

	at := func(vals []*float64, i int) float64 {
		if i < len(vals) && vals[i] != nil {
			return *vals[i]
		}
		return 0
	}

	bars := make([]contracts.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePx := at(q.Close, i)
		if closePx <= 0 {
			continue
		}
		t := time.Unix(ts, 0).UTC()
		bar := contracts.PriceBar{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:  at(q.Open, i),
			High:  at(q.High, i),
			Low:   at(q.Low, i),
			Close: closePx,
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

// CompanyProfile fetches sector, industry and country from assetProfile
func (c *Client) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	var resp quoteSummaryResponse
	err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), map[string]string{
		"modules": "assetProfile,price",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %s", ticker, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 || resp.QuoteSummary.Result[0].AssetProfile == nil {
		return nil, nil
	}

	r := resp.QuoteSummary.Result[0]
	p := &contracts.CompanyProfile{
		Ticker:      ticker,
		Sector:      r.AssetProfile.Sector,
		Industry:    r.AssetProfile.Industry,
		Country:     r.AssetProfile.Country,
		Website:     r.AssetProfile.Website,
		Description: r.AssetProfile.LongBusinessSummary,
	}
	if r.Price != nil {
		p.Name = r.Price.LongName
		p.Exchange = r.Price.ExchangeName
		p.MarketCap = r.Price.MarketCap.Raw
	}
	return p, nil
}
